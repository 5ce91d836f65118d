package tui

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabgruppen/internal/analyzer"
	"github.com/lotas/tabgruppen/internal/firefox"
	"github.com/lotas/tabgruppen/internal/server"
	"github.com/lotas/tabgruppen/internal/snapshot"
	"github.com/lotas/tabgruppen/internal/suggest"
	gsync "github.com/lotas/tabgruppen/internal/sync"
	"github.com/lotas/tabgruppen/internal/types"
)

// --- Messages ---

type sessionLoadedMsg struct {
	st      *types.PersistedState
	profile types.Profile
	err     error
}

type analysisCompleteMsg struct{}

type wsDisconnectedMsg struct{}

type wsEventMsg struct {
	msg server.IncomingMsg
}

type summaryDoneMsg struct {
	url     string
	summary string
	err     error
}

type groupSummaryMsg struct {
	groupID string
	summary string
	err     error
}

type nameSuggestionMsg struct {
	name string
}

type snapshotSavedMsg struct {
	rev     int
	created bool
	err     error
}

// SourceMode distinguishes live vs offline.
type SourceMode int

const (
	ModeOffline SourceMode = iota
	ModeLive
)

// Config carries everything the TUI needs from main.
type Config struct {
	Profiles   []types.Profile
	StaleDays  int
	LiveMode   bool
	Server     *server.Server
	Reconciler *gsync.Reconciler
	DB         *sql.DB
	Profile    string // snapshot profile key
	SummaryDir string
	Model      string
	OllamaHost string
}

// --- Model ---

type Model struct {
	// Data
	profiles   []types.Profile
	profile    types.Profile
	rec        *gsync.Reconciler
	st         *types.PersistedState
	stats      types.Stats
	staleDays  int
	snapKey    string
	summaryDir string
	llmModel   string
	ollamaHost string
	db         *sql.DB

	// UI state
	tree       TreeModel
	detail     DetailModel
	picker     SourcePicker
	showPicker bool
	loading    bool
	err        error
	status     string
	width      int
	height     int

	// Dead link checking
	deadChecking bool
	deadCancel   context.CancelFunc

	// Live mode
	mode       SourceMode
	srv        *server.Server
	srvStarted bool
	port       int
	selected   map[int]bool // BrowserID -> selected (live mode)

	// Tab IDs captured when a picker or input overlay opens, so the
	// operation applies to what was selected at that moment.
	pendingTabIDs []int
	catTarget     string // group ID awaiting a category pick

	groupPicker      GroupPicker
	showGroupPicker  bool
	filterPicker     FilterPicker
	showFilterPicker bool
	catPicker        CategoryPicker
	showCatPicker    bool
	nameInput        NameInput
	showNameInput    bool
	renameTarget     string // group ID being renamed; empty means create

	// Per-tab summary state (detail pane)
	detailSummary     string
	detailSummarizing bool
	detailSummaryErr  string

	groupSummarizing bool

	// Views
	activeView ViewType
	snapshots  SnapshotsView
}

func NewModel(cfg Config) Model {
	m := Model{
		profiles:   cfg.Profiles,
		staleDays:  cfg.StaleDays,
		rec:        cfg.Reconciler,
		snapKey:    cfg.Profile,
		summaryDir: cfg.SummaryDir,
		llmModel:   cfg.Model,
		ollamaHost: cfg.OllamaHost,
		db:         cfg.DB,
		selected:   make(map[int]bool),
		srv:        cfg.Server,
		port:       cfg.Server.Port(),
		snapshots:  NewSnapshotsView(cfg.DB),
	}
	if cfg.LiveMode {
		m.mode = ModeLive
		m.loading = true
		m.srvStarted = true
	} else if len(cfg.Profiles) == 1 {
		m.mode = ModeOffline
		m.loading = true
	} else {
		m.showPicker = true
		m.picker = NewSourcePicker(cfg.Profiles)
	}
	return m
}

func (m *Model) selectedOrCurrentTabIDs() []int {
	if len(m.selected) > 0 {
		ids := make([]int, 0, len(m.selected))
		for id := range m.selected {
			ids = append(ids, id)
		}
		return ids
	}
	node := m.tree.SelectedNode()
	if node != nil && node.Tab != nil && node.Tab.BrowserID != 0 {
		return []int{node.Tab.BrowserID}
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	if m.mode == ModeLive {
		return m.startLiveMode()
	}
	if len(m.profiles) == 1 {
		return loadSession(m.rec, m.profiles[0])
	}
	return nil
}

func (m Model) startLiveMode() tea.Cmd {
	return tea.Batch(
		listenWebSocket(m.srv),
		startWSServer(m.srv),
	)
}

func startWSServer(srv *server.Server) tea.Cmd {
	return func() tea.Msg {
		srv.ListenAndServe(context.Background())
		return wsDisconnectedMsg{}
	}
}

// loadSession imports an offline session file through the reconciler, the
// same merge-and-persist path a live snapshot takes.
func loadSession(rec *gsync.Reconciler, profile types.Profile) tea.Cmd {
	return func() tea.Msg {
		tabs, native, err := firefox.ReadSessionFile(profile.Path)
		if err != nil {
			return sessionLoadedMsg{err: err}
		}
		if err := rec.ApplySnapshot(tabs, native, 1); err != nil {
			return sessionLoadedMsg{err: err}
		}
		return sessionLoadedMsg{st: rec.State(), profile: profile}
	}
}

func runDeadLinkChecks(ctx context.Context, tabs []*types.Tab) tea.Cmd {
	return func() tea.Msg {
		results := make(chan analyzer.DeadLinkResult, len(tabs))
		go func() {
			analyzer.AnalyzeDeadLinks(ctx, tabs, results)
			close(results)
		}()
		// Drain the channel. AnalyzeDeadLinks modifies tabs in-place,
		// so we just wait for all checks to complete.
		for range results {
		}
		return analysisCompleteMsg{}
	}
}

func listenWebSocket(srv *server.Server) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-srv.Messages()
		if !ok {
			return wsDisconnectedMsg{}
		}
		return wsEventMsg{msg: msg}
	}
}

func summarizeTab(outDir, model, host string, tab *types.Tab) tea.Cmd {
	url := tab.URL
	title := tab.Title
	return func() tea.Msg {
		pageTitle, text, err := suggest.FetchReadable(url)
		if err != nil {
			return summaryDoneMsg{url: url, err: err}
		}
		if len(strings.TrimSpace(text)) < 50 {
			return summaryDoneMsg{url: url, err: fmt.Errorf("not enough readable content")}
		}
		summary, err := suggest.OllamaSummarize(context.Background(), model, host, text)
		if err != nil {
			return summaryDoneMsg{url: url, err: err}
		}
		if pageTitle == "" {
			pageTitle = title
		}
		outPath := suggest.SummaryPath(outDir, url, title)
		content := fmt.Sprintf("# %s\n\n**Source:** %s\n**Summarized:** %s\n\n## Summary\n\n%s\n",
			pageTitle, url, time.Now().Format("2006-01-02"), summary)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err == nil {
			os.WriteFile(outPath, []byte(content), 0o644)
		}
		return summaryDoneMsg{url: url, summary: summary}
	}
}

func summarizeGroup(model, host string, g *types.TabGroup) tea.Cmd {
	return func() tea.Msg {
		summary, err := suggest.SummarizeGroup(context.Background(), model, host, g)
		return groupSummaryMsg{groupID: g.ID, summary: summary, err: err}
	}
}

// suggestGroupName prefills the new-group input. Best effort: a failed or
// slow suggestion just leaves the input empty.
func suggestGroupName(model, host string, titles []string) tea.Cmd {
	return func() tea.Msg {
		name, err := suggest.SuggestName(context.Background(), model, host, titles)
		if err != nil {
			return nameSuggestionMsg{}
		}
		return nameSuggestionMsg{name: name}
	}
}

func saveSnapshot(db *sql.DB, st *types.PersistedState, profile string) tea.Cmd {
	return func() tea.Msg {
		rev, created, _, err := snapshot.Create(db, st, profile, "")
		return snapshotSavedMsg{rev: rev, created: created, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		treeWidth := m.width * TreeWidthPct / 100
		detailWidth := m.width - treeWidth - 3 // borders
		paneHeight := m.height - 5             // top bar + bottom bar
		m.tree.Width = treeWidth
		m.tree.Height = paneHeight
		m.detail.Width = detailWidth
		m.detail.Height = paneHeight
		m.picker.Width = m.width
		m.picker.Height = m.height
		m.snapshots.SetSize(m.width, paneHeight)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.st = msg.st
		m.profile = msg.profile
		return m, m.refreshAnalysis()

	case analysisCompleteMsg:
		m.deadChecking = false
		if m.st != nil {
			m.stats = analyzer.ComputeStats(m.st)
		}
		return m, nil

	case wsEventMsg:
		return m.handleWSEvent(msg.msg)

	case wsDisconnectedMsg:
		if m.mode == ModeLive && m.srv != nil {
			return m, listenWebSocket(m.srv)
		}
		return m, nil

	case groupSummaryMsg:
		m.groupSummarizing = false
		if msg.err != nil {
			m.status = "summarize failed: " + msg.err.Error()
			return m, nil
		}
		if err := m.rec.SetSummary(msg.groupID, msg.summary); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.st = m.rec.State()
		m.status = "group summary saved"
		return m, nil

	case nameSuggestionMsg:
		if m.showNameInput && m.renameTarget == "" && m.nameInput.Value == "" && msg.name != "" {
			m.nameInput.Value = msg.name
		}
		return m, nil

	case summaryDoneMsg:
		m.detailSummarizing = false
		if msg.err != nil {
			m.detailSummaryErr = msg.err.Error()
		} else {
			m.detailSummary = msg.summary
			m.detailSummaryErr = ""
		}
		return m, nil

	case snapshotSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("snapshot failed: %v", msg.err)
		} else if msg.created {
			m.status = fmt.Sprintf("snapshot #%d saved", msg.rev)
		} else {
			m.status = fmt.Sprintf("no changes since snapshot #%d", msg.rev)
		}
		if m.activeView == ViewSnapshots {
			return m, m.snapshots.Reload()
		}
		return m, nil

	case snapshotsLoadedMsg, snapshotDetailMsg:
		var cmd tea.Cmd
		m.snapshots, cmd = m.snapshots.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleWSEvent feeds a bridge message through the reconciler and refreshes
// the UI when the state was rebuilt.
func (m Model) handleWSEvent(ev server.IncomingMsg) (tea.Model, tea.Cmd) {
	m.loading = false

	// Command responses only surface errors.
	if ev.ID != "" && ev.OK != nil {
		if !*ev.OK {
			m.status = "browser: " + ev.Error
		}
		return m, listenWebSocket(m.srv)
	}

	changed, err := m.rec.HandleEvent(ev)
	if err != nil {
		m.status = err.Error()
		return m, listenWebSocket(m.srv)
	}
	if toast := eventToast(ev); toast != "" {
		m.status = toast
	}
	if !changed {
		return m, listenWebSocket(m.srv)
	}

	m.st = m.rec.State()
	return m, tea.Batch(m.refreshAnalysis(), listenWebSocket(m.srv))
}

// refreshAnalysis reruns the synchronous analyzers, rebuilds the tree, and
// kicks off dead link probes for the new tab set.
func (m *Model) refreshAnalysis() tea.Cmd {
	if m.st == nil {
		return nil
	}
	tabs := m.st.AllTabs()
	analyzer.AnalyzeStale(tabs, m.staleDays)
	analyzer.AnalyzeDuplicates(tabs)
	m.stats = analyzer.ComputeStats(m.st)
	m.rebuildTree()

	if m.deadCancel != nil {
		m.deadCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.deadCancel = cancel
	m.deadChecking = true
	return runDeadLinkChecks(ctx, tabs)
}

func (m *Model) rebuildTree() {
	oldCursor := m.tree.Cursor
	oldOffset := m.tree.Offset
	oldExpanded := m.tree.Expanded
	oldFilter := m.tree.Filter
	oldSavedExpanded := m.tree.SavedExpanded

	m.tree = NewTreeModel(m.st)
	m.tree.Width = m.width * TreeWidthPct / 100
	m.tree.Height = m.height - 5
	m.tree.Filter = oldFilter
	m.tree.SavedExpanded = oldSavedExpanded
	m.tree.SummaryDir = m.summaryDir

	// Restore expanded state from before rebuild
	if oldExpanded != nil {
		for id, exp := range oldExpanded {
			m.tree.Expanded[id] = exp
		}
	}

	// Expand any new groups when a filter is active
	if m.tree.Filter != types.FilterAll {
		for _, g := range m.tree.Groups {
			if _, exists := oldExpanded[g.ID]; !exists {
				m.tree.Expanded[g.ID] = true
			}
		}
	}

	// Clamp cursor to valid range
	nodes := m.tree.VisibleNodes()
	if oldCursor >= len(nodes) {
		oldCursor = len(nodes) - 1
	}
	if oldCursor < 0 {
		oldCursor = 0
	}
	m.tree.Cursor = oldCursor
	m.tree.Offset = oldOffset
}

func (m Model) View() string {
	if m.loading {
		if m.mode == ModeLive {
			return fmt.Sprintf("\n  Waiting for extension connection on :%d...\n", m.port)
		}
		return "\n  Loading session data...\n"
	}

	if m.showPicker {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}
	if m.showGroupPicker {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.groupPicker.View())
	}
	if m.showFilterPicker {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.filterPicker.View())
	}
	if m.showCatPicker {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.catPicker.View())
	}
	if m.showNameInput {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.nameInput.View())
	}

	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press 1-9 to switch source, 'q' to quit.\n", m.err)
	}

	if m.st == nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}

	// Navbar
	var sourceLabel string
	if m.mode == ModeLive {
		if m.srv.Connected() {
			sourceLabel = "Live ● connected"
		} else {
			sourceLabel = "Live ○ waiting..."
		}
	} else {
		sourceLabel = fmt.Sprintf("Profile: %s (offline)", m.profile.Name)
	}
	statsStr := fmt.Sprintf("%d tabs · %d groups", m.stats.TotalTabs, m.stats.TotalGroups)
	if m.stats.UngroupedTabs > 0 {
		statsStr += fmt.Sprintf(" · %d ungrouped", m.stats.UngroupedTabs)
	}
	if m.stats.DeadTabs > 0 {
		statsStr += fmt.Sprintf(" · %d dead", m.stats.DeadTabs)
	}
	if m.stats.StaleTabs > 0 {
		statsStr += fmt.Sprintf(" · %d stale", m.stats.StaleTabs)
	}
	if m.stats.DuplicateTabs > 0 {
		statsStr += fmt.Sprintf(" · %d dup", m.stats.DuplicateTabs)
	}
	if m.deadChecking {
		statsStr += " · checking links..."
	}
	navbar := renderNavbar(m.activeView, sourceLabel, [2]int{m.stats.TotalGroups, m.snapshots.Count()}, statsStr, m.width)

	var panes string
	if m.activeView == ViewSnapshots {
		panes = m.viewSnapshotPanes()
	} else {
		panes = m.viewGroupPanes()
	}

	// Bottom bar
	bottomBarStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	var bottomText string
	if m.status != "" {
		bottomText = m.status + "  ·  "
	}
	if m.activeView == ViewSnapshots {
		bottomText += "↑↓/jk navigate · enter inspect · tab groups · q quit"
	} else {
		if m.liveConnected() {
			selCount := len(m.selected)
			if selCount > 0 {
				bottomText += fmt.Sprintf("%d selected · ", selCount)
			}
			bottomText += "space select · g move · n new · d delete · R rename · c category · a active · x close · "
		}
		filterNames := []string{"all", "stale", "dead", "duplicate", ">7d", ">30d", ">90d", "ungrouped"}
		bottomText += "f filter · s summarize · S snapshot · tab snapshots · r refresh · q quit  " +
			fmt.Sprintf("[filter: %s]", filterNames[m.tree.Filter])
	}
	bottomBar := bottomBarStyle.Render(bottomText)

	return lipgloss.JoinVertical(lipgloss.Left, navbar, panes, bottomBar)
}

func (m Model) viewGroupPanes() string {
	treeBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Width(m.tree.Width).
		Height(m.tree.Height)

	detailBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.detail.Width).
		Height(m.detail.Height)

	var detailContent string
	if node := m.tree.SelectedNode(); node != nil {
		if node.Tab != nil {
			detailContent = m.detail.ViewTabWithSummary(node.Tab, m.detailSummary, m.detailSummarizing, m.detailSummaryErr)
		} else if node.Group != nil {
			detailContent = m.detail.ViewGroup(node.Group, node.Group.ID == m.st.ActiveGroupID)
		}
	}

	m.tree.Selected = m.selected
	left := treeBorder.Render(m.tree.View())
	right := detailBorder.Render(detailContent)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) selectSource(src Source) (tea.Model, tea.Cmd) {
	m.showPicker = false
	m.err = nil
	m.status = ""
	m.selected = make(map[int]bool)
	m.detailSummary = ""
	m.detailSummaryErr = ""
	if src.IsLive {
		m.mode = ModeLive
		if m.st == nil {
			m.loading = true
		}
		if !m.srvStarted {
			m.srvStarted = true
			return m, m.startLiveMode()
		}
		return m, nil
	}
	m.mode = ModeOffline
	m.loading = true
	m.profile = *src.Profile
	return m, loadSession(m.rec, *src.Profile)
}

// applyGroupOp runs a reconciler call, surfaces its error on the status
// line, and refreshes the UI from the rebuilt state.
func (m *Model) applyGroupOp(err error) tea.Cmd {
	if err != nil {
		m.status = err.Error()
	}
	m.st = m.rec.State()
	m.selected = make(map[int]bool)
	return m.refreshAnalysis()
}

func (m Model) liveConnected() bool {
	return m.mode == ModeLive && m.srv != nil && m.srv.Connected()
}

func (m Model) titlesForTabs(ids []int) []string {
	if m.st == nil {
		return nil
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var titles []string
	for _, tab := range m.st.AllTabs() {
		if want[tab.BrowserID] && tab.Title != "" {
			titles = append(titles, tab.Title)
		}
	}
	return titles
}

// eventToast renders a one-line status note for a change event.
func eventToast(ev server.IncomingMsg) string {
	switch ev.Type {
	case "tab.created":
		if tab, err := server.ParseTab(ev.Tab); err == nil && tab.Title != "" {
			return "opened: " + tab.Title
		}
	case "tab.removed":
		return "tab closed"
	case "group.created":
		if g, err := server.ParseGroup(ev.Group); err == nil && g.Title != "" {
			return "new group: " + g.Title
		}
	case "group.removed":
		return "group removed"
	}
	return ""
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// The name input swallows all keys while open.
	if m.showNameInput {
		switch key {
		case "esc":
			m.showNameInput = false
			m.renameTarget = ""
		case "enter":
			name := strings.TrimSpace(m.nameInput.Value)
			m.showNameInput = false
			if name == "" {
				m.renameTarget = ""
				return m, nil
			}
			if m.renameTarget != "" {
				err := m.rec.RenameGroup(m.renameTarget, name)
				m.renameTarget = ""
				return m, m.applyGroupOp(err)
			}
			return m, m.applyGroupOp(m.rec.CreateGroup(name, types.CatOther, "", m.pendingTabIDs))
		case "backspace":
			m.nameInput.Backspace()
		case " ":
			m.nameInput.Type(" ")
		default:
			if msg.Type == tea.KeyRunes {
				m.nameInput.Type(string(msg.Runes))
			}
		}
		return m, nil
	}

	if m.showPicker {
		switch key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.picker.MoveUp()
		case "down", "j":
			m.picker.MoveDown()
		case "enter":
			return m.selectSource(m.picker.Selected())
		default:
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				if m.picker.SelectByNumber(int(key[0] - '0')) {
					return m.selectSource(m.picker.Selected())
				}
			}
		}
		return m, nil
	}

	if m.showGroupPicker {
		switch key {
		case "esc", "q":
			m.showGroupPicker = false
		case "up", "k":
			m.groupPicker.MoveUp()
		case "down", "j":
			m.groupPicker.MoveDown()
		case "enter":
			m.showGroupPicker = false
			if g := m.groupPicker.Selected(); g != nil {
				return m, m.applyGroupOp(m.rec.MoveTabs(m.pendingTabIDs, g.ID))
			}
		}
		return m, nil
	}

	if m.showFilterPicker {
		switch key {
		case "esc", "q":
			m.showFilterPicker = false
		case "up", "k":
			m.filterPicker.MoveUp()
		case "down", "j":
			m.filterPicker.MoveDown()
		case "enter":
			m.showFilterPicker = false
			m.tree.SetFilter(m.filterPicker.Selected().Mode)
		}
		return m, nil
	}

	if m.showCatPicker {
		switch key {
		case "esc", "q":
			m.showCatPicker = false
			m.catTarget = ""
		case "up", "k":
			m.catPicker.MoveUp()
		case "down", "j":
			m.catPicker.MoveDown()
		case "enter":
			m.showCatPicker = false
			target := m.catTarget
			m.catTarget = ""
			if target != "" {
				return m, m.applyGroupOp(m.rec.SetCategory(target, m.catPicker.Selected()))
			}
		}
		return m, nil
	}

	if m.activeView == ViewSnapshots {
		switch key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activeView = ViewGroups
			return m, nil
		}
		var cmd tea.Cmd
		m.snapshots, cmd = m.snapshots.Update(msg)
		return m, cmd
	}

	switch key {
	case "q", "ctrl+c":
		if m.deadCancel != nil {
			m.deadCancel()
		}
		return m, tea.Quit

	case "tab":
		m.activeView = ViewSnapshots
		return m, m.snapshots.SetProfile(m.snapKey)

	case "up", "k":
		m.tree.MoveUp()
		m.detail.ResetScroll()
		m.detailSummary = ""
		m.detailSummaryErr = ""

	case "down", "j":
		m.tree.MoveDown()
		m.detail.ResetScroll()
		m.detailSummary = ""
		m.detailSummaryErr = ""

	case "h", "left":
		m.tree.CollapseOrParent()

	case "l", "right":
		m.tree.ExpandOrEnter()

	case "enter":
		node := m.tree.SelectedNode()
		if node != nil && node.Tab != nil && m.liveConnected() {
			if err := m.srv.Send(server.OutgoingMsg{Action: "focus", TabID: node.Tab.BrowserID}); err != nil {
				m.status = err.Error()
			}
			return m, nil
		}
		m.tree.Toggle()

	case "J", "ctrl+d":
		m.detail.ScrollDown()

	case "K", "ctrl+u":
		m.detail.ScrollUp()

	case "f":
		m.filterPicker = NewFilterPicker(m.tree.Filter)
		m.showFilterPicker = true

	case "r":
		m.status = ""
		if m.mode == ModeLive {
			if !m.srv.Connected() {
				return m, nil
			}
			if err := m.srv.Send(server.OutgoingMsg{Action: "query"}); err != nil {
				m.status = err.Error()
			}
			return m, nil
		}
		m.loading = true
		return m, loadSession(m.rec, m.profile)

	case " ":
		if !m.liveConnected() {
			return m, nil
		}
		node := m.tree.SelectedNode()
		if node != nil && node.Tab != nil && node.Tab.BrowserID != 0 {
			id := node.Tab.BrowserID
			if m.selected[id] {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
			m.tree.MoveDown()
		}

	case "esc":
		m.selected = make(map[int]bool)
		m.status = ""

	case "x":
		if !m.liveConnected() {
			return m, nil
		}
		ids := m.selectedOrCurrentTabIDs()
		if len(ids) == 0 {
			return m, nil
		}
		if err := m.srv.Send(server.OutgoingMsg{Action: "close", TabIDs: ids}); err != nil {
			m.status = err.Error()
		}
		m.selected = make(map[int]bool)

	case "g":
		if !m.liveConnected() || len(m.st.Groups) == 0 {
			return m, nil
		}
		ids := m.selectedOrCurrentTabIDs()
		if len(ids) == 0 {
			return m, nil
		}
		m.pendingTabIDs = ids
		m.groupPicker = NewGroupPicker(m.st.Groups)
		m.showGroupPicker = true

	case "n":
		if !m.liveConnected() {
			return m, nil
		}
		m.pendingTabIDs = m.selectedOrCurrentTabIDs()
		m.renameTarget = ""
		m.nameInput = NewNameInput("New group", "")
		m.showNameInput = true
		if titles := m.titlesForTabs(m.pendingTabIDs); len(titles) > 0 {
			return m, suggestGroupName(m.llmModel, m.ollamaHost, titles)
		}

	case "R":
		if !m.liveConnected() {
			return m, nil
		}
		node := m.tree.SelectedNode()
		if node == nil || node.Group == nil || node.Group.ID == ungroupedID {
			return m, nil
		}
		m.renameTarget = node.Group.ID
		m.nameInput = NewNameInput("Rename group", node.Group.Name)
		m.showNameInput = true

	case "d":
		if !m.liveConnected() {
			return m, nil
		}
		node := m.tree.SelectedNode()
		if node == nil || node.Group == nil || node.Group.ID == ungroupedID {
			return m, nil
		}
		return m, m.applyGroupOp(m.rec.DeleteGroup(node.Group.ID))

	case "c":
		if !m.liveConnected() {
			return m, nil
		}
		node := m.tree.SelectedNode()
		if node == nil || node.Group == nil || node.Group.ID == ungroupedID {
			return m, nil
		}
		m.catTarget = node.Group.ID
		m.catPicker = NewCategoryPicker(node.Group.Category)
		m.showCatPicker = true

	case "a":
		if !m.liveConnected() {
			return m, nil
		}
		node := m.tree.SelectedNode()
		if node == nil || node.Group == nil || node.Group.ID == ungroupedID {
			return m, nil
		}
		return m, m.applyGroupOp(m.rec.SetActive(node.Group.ID))

	case "s":
		node := m.tree.SelectedNode()
		if node == nil {
			return m, nil
		}
		if node.Group != nil && node.Group.ID != ungroupedID {
			if m.groupSummarizing {
				return m, nil
			}
			m.groupSummarizing = true
			m.status = "summarizing group..."
			return m, summarizeGroup(m.llmModel, m.ollamaHost, node.Group)
		}
		if node.Tab == nil || m.detailSummarizing {
			return m, nil
		}
		path := suggest.SummaryPath(m.summaryDir, node.Tab.URL, node.Tab.Title)
		if existing, err := suggest.ReadSummary(path); err == nil && existing != "" {
			m.detailSummary = existing
			return m, nil
		}
		m.detailSummarizing = true
		m.detailSummaryErr = ""
		return m, summarizeTab(m.summaryDir, m.llmModel, m.ollamaHost, node.Tab)

	case "S":
		if m.st == nil {
			return m, nil
		}
		m.status = "saving snapshot..."
		return m, saveSnapshot(m.db, m.st, m.snapKey)

	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if m.picker.Sources == nil {
				m.picker = NewSourcePicker(m.profiles)
			}
			if m.picker.SelectByNumber(int(key[0] - '0')) {
				return m.selectSource(m.picker.Selected())
			}
		}
	}

	return m, nil
}

func (m Model) viewSnapshotPanes() string {
	treeWidth := m.width * TreeWidthPct / 100
	listBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Width(treeWidth).
		Height(m.height - 5)
	detailBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - treeWidth - 3).
		Height(m.height - 5)

	left := listBorder.Render(m.snapshots.ViewList())
	right := detailBorder.Render(m.snapshots.ViewDetail())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
