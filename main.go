package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/autogroup"
	"github.com/lotas/tabgruppen/internal/export"
	"github.com/lotas/tabgruppen/internal/firefox"
	"github.com/lotas/tabgruppen/internal/server"
	"github.com/lotas/tabgruppen/internal/snapshot"
	"github.com/lotas/tabgruppen/internal/state"
	"github.com/lotas/tabgruppen/internal/storage"
	"github.com/lotas/tabgruppen/internal/suggest"
	gsync "github.com/lotas/tabgruppen/internal/sync"
	"github.com/lotas/tabgruppen/internal/tui"
	"github.com/lotas/tabgruppen/internal/types"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "snapshot":
			runSnapshot(os.Args[2:])
			return
		case "autogroup":
			runAutogroup(os.Args[2:])
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "summarize":
			runSummarize(os.Args[2:])
			return
		case "profiles":
			runProfiles()
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	fs := flag.NewFlagSet("tabgruppen", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name (skip picker)")
	staleDays := fs.Int("stale-days", 7, "Days before a tab is considered stale")
	liveMode := fs.Bool("live", false, "Start in live mode (connect to extension)")
	port := fs.Int("port", 19191, "WebSocket port for live mode")
	fs.Parse(os.Args[1:])

	profiles, err := firefox.DiscoverProfiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering Firefox profiles: %v\n", err)
		os.Exit(1)
	}
	if len(profiles) == 0 && !*liveMode {
		fmt.Fprintln(os.Stderr, "No Firefox profiles found. Use --live with the extension instead.")
		os.Exit(1)
	}

	// If --profile flag or TABGRUPPEN_PROFILE env var is set, filter to just that profile
	resolved := resolveProfileName(*profileName)
	if resolved != "" {
		var filtered []types.Profile
		for _, p := range profiles {
			if p.Name == resolved {
				filtered = append(filtered, p)
				break
			}
		}
		if len(filtered) == 0 {
			fmt.Fprintf(os.Stderr, "Profile %q not found. Available profiles:\n", resolved)
			for _, p := range profiles {
				fmt.Fprintf(os.Stderr, "  - %s\n", p.Name)
			}
			os.Exit(1)
		}
		profiles = filtered
	}

	// stderr is unusable once the TUI owns the terminal, so log to a file.
	if err := applog.Init(dataDir()); err == nil {
		defer applog.Close()
	}

	// Always create the server — it's cheap (just a struct + channel).
	// ListenAndServe is only called when the user actually enters live mode.
	srv := server.New(*port)

	store, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rec, err := gsync.New(store, srv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		os.Exit(1)
	}

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Resolve summarize config
	resolvedModel := os.Getenv("TABGRUPPEN_MODEL")
	if resolvedModel == "" {
		resolvedModel = "llama3.2"
	}
	ollamaHost := os.Getenv("OLLAMA_HOST")
	if ollamaHost == "" {
		ollamaHost = "http://localhost:11434"
	}
	summaryDir := os.Getenv("TABGRUPPEN_SUMMARY_DIR")
	if summaryDir == "" {
		summaryDir = filepath.Join(dataDir(), "summaries")
	}

	snapKey := "live"
	if !*liveMode {
		snapKey = snapshotProfileKey(profiles, resolved)
	}

	model := tui.NewModel(tui.Config{
		Profiles:   profiles,
		StaleDays:  *staleDays,
		LiveMode:   *liveMode,
		Server:     srv,
		Reconciler: rec,
		DB:         db,
		Profile:    snapKey,
		SummaryDir: summaryDir,
		Model:      resolvedModel,
		OllamaHost: ollamaHost,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`tabgruppen — browser tab group organizer

Usage:
  tabgruppen                                           Start the TUI (default)
    --profile <name>       Firefox profile name (skips picker)
    --stale-days <n>       Days before a tab is considered stale (default: 7)
    --live                 Start in live mode (connect to extension)
    --port <n>             WebSocket port for live mode (default: 19191)

  tabgruppen export                                    Export groups to stdout or file
    --profile <name>       Firefox profile name
    --json                 Export as JSON instead of markdown
    --out <file>           Output file path (default: stdout)
    --live                 Export from live extension instead of session file
    --port <n>             WebSocket port for live mode (default: 19191)

  tabgruppen profiles                                  List Firefox profiles

  tabgruppen snapshot [--profile X] [--label "text"]   Auto-snapshot (only if changed)
  tabgruppen snapshot list                             List saved snapshots
  tabgruppen snapshot diff [rev] [rev2] [--profile X]  Compare snapshots or current tabs
  tabgruppen snapshot delete <rev> [--profile X] [--yes]  Delete a snapshot
  tabgruppen snapshot restore <rev> [--profile X] [--port N]  Restore tabs via live mode

  tabgruppen autogroup                                 Group ungrouped tabs by category
    --profile <name>       Firefox profile name
    --apply                Apply moves via live mode (skip confirmation)
    --no-llm               Domain rules only, no LLM fallback
    --model <name>         Ollama model (env: TABGRUPPEN_MODEL, default: llama3.2)
    --port <n>             WebSocket port for live mode (default: 19191)

  tabgruppen summarize                                 Summarize a group via Ollama
    --profile <name>       Firefox profile name
    --model <name>         Ollama model (env: TABGRUPPEN_MODEL, default: llama3.2)
    --out-dir <path>       Output directory (default: ~/.local/share/tabgruppen/summaries/)
    --group <name>         Tab group to summarize (default: "Summarize This")

Environment:
  TABGRUPPEN_PROFILE     Default Firefox profile (overridden by --profile flag)
  TABGRUPPEN_MODEL       Default Ollama model (overridden by --model flag)
  TABGRUPPEN_STATE_FILE  Path to the persisted group state (default: ~/.local/share/tabgruppen/state.json)
  OLLAMA_HOST            Ollama server URL (default: http://localhost:11434)
`)
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	jsonFlag := fs.Bool("json", false, "Export as JSON instead of markdown")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	liveMode := fs.Bool("live", false, "Export from live extension instead of session file")
	port := fs.Int("port", 19191, "WebSocket port for live mode")
	fs.Parse(args)

	var st *types.PersistedState
	var label string
	var err error

	if *liveMode {
		st, err = exportLive(*port)
		label = "live"
	} else {
		var profile types.Profile
		st, profile, err = resolveState(resolveProfileName(*profileName))
		label = profile.Name
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var output string
	if *jsonFlag {
		output, err = export.JSON(st, label)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		output = export.Markdown(st, label)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print(output)
	}
}

func runProfiles() {
	profiles, err := firefox.DiscoverProfiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering Firefox profiles: %v\n", err)
		os.Exit(1)
	}
	if len(profiles) == 0 {
		fmt.Fprintln(os.Stderr, "No Firefox profiles found.")
		os.Exit(1)
	}

	for _, p := range profiles {
		suffix := ""
		if p.IsDefault {
			suffix = " [default]"
		}
		fmt.Printf("%s (%s)%s\n", p.Name, p.Path, suffix)
	}
}

// exportLive waits for one snapshot from the extension and merges it with
// the persisted group model.
func exportLive(port int) (*types.PersistedState, error) {
	srv := server.New(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.ListenAndServe(ctx)

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	rec, err := gsync.New(store, srv)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Waiting for browser extension on port %d...\n", port)

	timeout := time.After(10 * time.Second)
	for {
		select {
		case msg := <-srv.Messages():
			changed, err := rec.HandleEvent(msg)
			if err != nil {
				return nil, err
			}
			if changed && msg.Type == "snapshot" {
				return rec.State(), nil
			}
		case <-timeout:
			return nil, fmt.Errorf("timed out waiting for extension (10s)")
		}
	}
}

// resolveProfile discovers profiles and picks the named one. An empty name
// selects the default profile, falling back to the first one found.
func resolveProfile(profileName string) (types.Profile, error) {
	profiles, err := firefox.DiscoverProfiles()
	if err != nil {
		return types.Profile{}, fmt.Errorf("discover profiles: %w", err)
	}
	if len(profiles) == 0 {
		return types.Profile{}, fmt.Errorf("no Firefox profiles found")
	}

	if profileName != "" {
		for _, p := range profiles {
			if p.Name == profileName {
				return p, nil
			}
		}
		return types.Profile{}, fmt.Errorf("profile %q not found", profileName)
	}

	profile := profiles[0]
	for _, p := range profiles {
		if p.IsDefault {
			profile = p
			break
		}
	}
	return profile, nil
}

// resolveState reads the profile's session file and rebuilds the persisted
// state from it, the same merge the TUI performs on load.
func resolveState(profileName string) (*types.PersistedState, types.Profile, error) {
	profile, err := resolveProfile(profileName)
	if err != nil {
		return nil, types.Profile{}, err
	}

	tabs, native, err := firefox.ReadSessionFile(profile.Path)
	if err != nil {
		return nil, types.Profile{}, fmt.Errorf("read session: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return nil, types.Profile{}, err
	}
	prev, err := store.Load()
	if err != nil {
		return nil, types.Profile{}, err
	}
	st := gsync.BuildState(prev, tabs, native, 1, time.Now())
	if err := store.Save(st); err != nil {
		return nil, types.Profile{}, err
	}
	return st, profile, nil
}

func openStore() (*state.Store, error) {
	path := os.Getenv("TABGRUPPEN_STATE_FILE")
	if path == "" {
		var err error
		path, err = state.DefaultStatePath()
		if err != nil {
			return nil, err
		}
	}
	return state.New(path), nil
}

func openDB() (*sql.DB, error) {
	dbPath, err := storage.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return storage.OpenDB(dbPath)
}

func dataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tabgruppen")
}

// snapshotProfileKey picks the profile name snapshots are filed under.
func snapshotProfileKey(profiles []types.Profile, resolved string) string {
	if resolved != "" {
		return resolved
	}
	if len(profiles) == 0 {
		return "live"
	}
	key := profiles[0].Name
	for _, p := range profiles {
		if p.IsDefault {
			key = p.Name
			break
		}
	}
	return key
}

// reorderArgs moves flag arguments before positional arguments so that
// flag.Parse handles them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flags = append(flags, args[i])
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}

// resolveProfileName returns the profile name from the flag if set,
// otherwise falls back to the TABGRUPPEN_PROFILE environment variable.
func resolveProfileName(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("TABGRUPPEN_PROFILE")
}

func runSnapshot(args []string) {
	// If no args or first arg is a flag, it's the auto-create flow.
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		runSnapshotCreate(args)
		return
	}

	subcmd := args[0]
	subArgs := args[1:]

	switch subcmd {
	case "create":
		runSnapshotCreate(subArgs)
	case "list":
		runSnapshotList()
	case "diff":
		runSnapshotDiff(subArgs)
	case "delete":
		runSnapshotDelete(subArgs)
	case "restore":
		runSnapshotRestore(subArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown snapshot command %q. Use list, diff, delete, or restore.\n", subcmd)
		os.Exit(1)
	}
}

func runSnapshotCreate(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	label := fs.String("label", "", "Optional label for the snapshot")
	fs.Parse(args)

	st, profile, err := resolveState(resolveProfileName(*profileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	rev, created, diff, err := snapshot.Create(db, st, profile.Name, *label)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating snapshot: %v\n", err)
		os.Exit(1)
	}

	if !created {
		fmt.Printf("No changes since snapshot #%d\n", rev)
		return
	}

	fmt.Printf("Snapshot #%d created: %d tabs in %d groups\n", rev, len(st.AllTabs()), len(st.Groups))

	if diff != nil && (len(diff.Added) > 0 || len(diff.Removed) > 0) {
		fmt.Println()
		if len(diff.Added) > 0 {
			fmt.Printf("+ Added (%d):\n", len(diff.Added))
			for _, e := range diff.Added {
				if e.Group != "" {
					fmt.Printf("  + %s [%s]\n", e.URL, e.Group)
				} else {
					fmt.Printf("  + %s\n", e.URL)
				}
			}
		}
		if len(diff.Removed) > 0 {
			if len(diff.Added) > 0 {
				fmt.Println()
			}
			fmt.Printf("- Removed (%d):\n", len(diff.Removed))
			for _, e := range diff.Removed {
				if e.Group != "" {
					fmt.Printf("  - %s [%s]\n", e.URL, e.Group)
				} else {
					fmt.Printf("  - %s\n", e.URL)
				}
			}
		}
	}
}

func runSnapshotList() {
	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	snaps, err := storage.ListSnapshots(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing snapshots: %v\n", err)
		os.Exit(1)
	}

	if len(snaps) == 0 {
		fmt.Println("No snapshots found.")
		return
	}

	fmt.Printf("%-5s %5s  %-12s %-20s  %s\n", "REV", "TABS", "PROFILE", "LABEL", "CREATED")
	for _, s := range snaps {
		fmt.Printf("%5d %5d  %-12s %-20s  %s\n",
			s.Rev,
			s.TabCount,
			s.Profile,
			s.Name,
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
}

func runSnapshotDiff(args []string) {
	fs := flag.NewFlagSet("snapshot diff", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	fs.Parse(reorderArgs(args))

	profile := resolveProfileName(*profileName)

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	switch fs.NArg() {
	case 0:
		// Diff latest vs current.
		st, p, err := resolveState(profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		result, err := snapshot.DiffAgainstCurrent(db, p.Name, 0, st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(snapshot.FormatDiff(result))

	case 1:
		// Diff specific rev vs current.
		rev, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid revision number: %s\n", fs.Arg(0))
			os.Exit(1)
		}
		st, p, err := resolveState(profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		result, err := snapshot.DiffAgainstCurrent(db, p.Name, rev, st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(snapshot.FormatDiff(result))

	case 2:
		// Diff two revisions.
		rev1, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid revision number: %s\n", fs.Arg(0))
			os.Exit(1)
		}
		rev2, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid revision number: %s\n", fs.Arg(1))
			os.Exit(1)
		}
		// For rev-vs-rev diff we need a profile name.
		resolvedProfile := profile
		if resolvedProfile == "" {
			p, err := resolveProfile("")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			resolvedProfile = p.Name
		}
		result, err := snapshot.DiffRevisions(db, resolvedProfile, rev1, rev2)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(snapshot.FormatDiff(result))

	default:
		fmt.Fprintln(os.Stderr, "Usage: tabgruppen snapshot diff [rev] [rev2] [--profile name]")
		os.Exit(1)
	}
}

func runSnapshotDelete(args []string) {
	fs := flag.NewFlagSet("snapshot delete", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	yes := fs.Bool("yes", false, "Skip confirmation prompt")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabgruppen snapshot delete <rev> [--profile name] [--yes]")
		os.Exit(1)
	}

	rev, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid revision number: %s\n", fs.Arg(0))
		os.Exit(1)
	}

	profile := resolveProfileName(*profileName)
	if profile == "" {
		p, err := resolveProfile("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		profile = p.Name
	}

	if !*yes {
		fmt.Printf("Delete snapshot #%d? [y/N] ", rev)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.DeleteSnapshot(db, profile, rev); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot #%d deleted.\n", rev)
}

func runSnapshotRestore(args []string) {
	fs := flag.NewFlagSet("snapshot restore", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	port := fs.Int("port", 19191, "WebSocket port for live mode")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabgruppen snapshot restore <rev> [--profile name] [--port N]")
		os.Exit(1)
	}

	rev, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid revision number: %s\n", fs.Arg(0))
		os.Exit(1)
	}

	profile := resolveProfileName(*profileName)
	if profile == "" {
		p, err := resolveProfile("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		profile = p.Name
	}

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := snapshot.Restore(db, profile, rev, *port); err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring snapshot: %v\n", err)
		os.Exit(1)
	}
}

func runAutogroup(args []string) {
	fs := flag.NewFlagSet("autogroup", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	apply := fs.Bool("apply", false, "Apply moves via live mode (skip confirmation)")
	noLLM := fs.Bool("no-llm", false, "Domain rules only, no LLM fallback")
	modelFlag := fs.String("model", "", "Ollama model name (default: llama3.2)")
	port := fs.Int("port", 19191, "WebSocket port for live mode")
	fs.Parse(args)

	llm := resolveClassifier(*noLLM, *modelFlag)

	st, _, err := resolveState(resolveProfileName(*profileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(st.UngroupedTabs) == 0 {
		fmt.Println("No ungrouped tabs.")
		return
	}

	result := autogroup.Classify(context.Background(), st.UngroupedTabs, llm)
	fmt.Print(autogroup.FormatDryRun(result))

	if len(result.Moves) == 0 {
		return
	}

	if !*apply {
		fmt.Print("Apply? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("No changes applied.")
			return
		}
	}

	if err := applyAutogroup(*port, llm); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying autogroup: %v\n", err)
		os.Exit(1)
	}
}

// applyAutogroup reclassifies against a live snapshot before moving
// anything: session-file tab IDs are synthetic and mean nothing to the
// browser, so moves must be computed from the extension's own tab IDs.
func applyAutogroup(port int, llm autogroup.Classifier) error {
	srv := server.New(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.ListenAndServe(ctx)

	store, err := openStore()
	if err != nil {
		return err
	}
	rec, err := gsync.New(store, srv)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Waiting for extension connection...")
	timeout := time.After(60 * time.Second)
	for {
		select {
		case msg := <-srv.Messages():
			if _, err := rec.HandleEvent(msg); err != nil {
				return err
			}
			if msg.Type == "snapshot" {
				goto connected
			}
		case <-timeout:
			return fmt.Errorf("timed out waiting for extension connection")
		}
	}

connected:
	st := rec.State()
	if len(st.UngroupedTabs) == 0 {
		fmt.Println("No ungrouped tabs in the live session.")
		return nil
	}

	result := autogroup.Classify(ctx, st.UngroupedTabs, llm)
	if err := autogroup.Apply(result, rec); err != nil {
		return err
	}

	for cat, moves := range result.Moves {
		fmt.Printf("  %s: %d tabs grouped\n", cat, len(moves))
	}
	return nil
}

func resolveClassifier(noLLM bool, modelFlag string) autogroup.Classifier {
	if noLLM {
		return nil
	}
	model := modelFlag
	if model == "" {
		model = os.Getenv("TABGRUPPEN_MODEL")
	}
	if model == "" {
		model = "llama3.2"
	}
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	return func(ctx context.Context, tabs []*types.Tab) (types.Category, error) {
		return suggest.ClassifyTabs(ctx, model, host, tabs)
	}
}

func runSummarize(args []string) {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	model := fs.String("model", "", "Ollama model name (default: llama3.2)")
	outDir := fs.String("out-dir", "", "Output directory for summary files")
	groupName := fs.String("group", "Summarize This", "Tab group name to summarize")
	fs.Parse(args)

	st, _, err := resolveState(resolveProfileName(*profileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Resolve model: flag > env > default.
	resolvedModel := *model
	if resolvedModel == "" {
		resolvedModel = os.Getenv("TABGRUPPEN_MODEL")
	}
	if resolvedModel == "" {
		resolvedModel = "llama3.2"
	}

	// Resolve Ollama host: env > default.
	ollamaHost := os.Getenv("OLLAMA_HOST")
	if ollamaHost == "" {
		ollamaHost = "http://localhost:11434"
	}

	// Resolve output directory: flag > default.
	resolvedOutDir := *outDir
	if resolvedOutDir == "" {
		resolvedOutDir = filepath.Join(dataDir(), "summaries")
	}

	cfg := suggest.Config{
		OutDir:     resolvedOutDir,
		Model:      resolvedModel,
		OllamaHost: ollamaHost,
		GroupName:  *groupName,
		State:      st,
	}

	if err := suggest.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
