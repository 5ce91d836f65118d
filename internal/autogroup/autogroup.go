package autogroup

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/sync"
	"github.com/lotas/tabgruppen/internal/types"
)

// Move represents a proposed tab-to-category assignment.
type Move struct {
	Tab      *types.Tab
	Category types.Category
	Reason   string
}

// Result holds the classification output, bucketed by category.
type Result struct {
	Moves   map[types.Category][]*Move
	Skipped int
}

// Classifier resolves a category for tabs that no rule matches.
type Classifier func(ctx context.Context, tabs []*types.Tab) (types.Category, error)

// domainRules maps hostname suffixes to categories. Checked before the LLM
// so common sites never need a model call.
var domainRules = map[string]types.Category{
	"github.com":            types.CatDev,
	"gitlab.com":            types.CatDev,
	"stackoverflow.com":     types.CatDev,
	"pkg.go.dev":            types.CatDev,
	"developer.mozilla.org": types.CatDev,
	"amazon.com":            types.CatShopping,
	"amazon.de":             types.CatShopping,
	"ebay.com":              types.CatShopping,
	"etsy.com":              types.CatShopping,
	"youtube.com":           types.CatEntertainment,
	"netflix.com":           types.CatEntertainment,
	"twitch.tv":             types.CatEntertainment,
	"spotify.com":           types.CatEntertainment,
	"reddit.com":            types.CatSocial,
	"twitter.com":           types.CatSocial,
	"x.com":                 types.CatSocial,
	"facebook.com":          types.CatSocial,
	"instagram.com":         types.CatSocial,
	"linkedin.com":          types.CatSocial,
	"mastodon.social":       types.CatSocial,
	"news.ycombinator.com":  types.CatNews,
	"bbc.com":               types.CatNews,
	"theguardian.com":       types.CatNews,
	"reuters.com":           types.CatNews,
	"arxiv.org":             types.CatResearch,
	"scholar.google.com":    types.CatResearch,
	"wikipedia.org":         types.CatResearch,
}

// matchDomain returns the rule category for a URL, if any.
func matchDomain(rawURL string) (types.Category, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "", "", false
	}
	host := strings.ToLower(u.Hostname())
	for suffix, cat := range domainRules {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return cat, suffix, true
		}
	}
	return "", "", false
}

// Classify buckets ungrouped tabs by category. Domain rules apply first;
// remaining tabs are clustered by hostname and handed to the classifier.
// Tabs the classifier cannot place are counted as skipped, not failed.
func Classify(ctx context.Context, tabs []*types.Tab, llm Classifier) *Result {
	r := &Result{Moves: make(map[types.Category][]*Move)}

	var leftover []*types.Tab
	for _, tab := range tabs {
		if cat, domain, ok := matchDomain(tab.URL); ok {
			r.Moves[cat] = append(r.Moves[cat], &Move{Tab: tab, Category: cat, Reason: domain})
			continue
		}
		leftover = append(leftover, tab)
	}

	if llm == nil {
		r.Skipped += len(leftover)
		return r
	}

	// Cluster leftovers by hostname so one model call covers a whole site.
	clusters := make(map[string][]*types.Tab)
	var order []string
	for _, tab := range leftover {
		host := "unknown"
		if u, err := url.Parse(tab.URL); err == nil && u.Hostname() != "" {
			host = strings.ToLower(u.Hostname())
		}
		if _, seen := clusters[host]; !seen {
			order = append(order, host)
		}
		clusters[host] = append(clusters[host], tab)
	}

	for _, host := range order {
		cluster := clusters[host]
		cat, err := llm(ctx, cluster)
		if err != nil {
			applog.Error("autogroup.classify", err, "host", host)
			r.Skipped += len(cluster)
			continue
		}
		for _, tab := range cluster {
			r.Moves[cat] = append(r.Moves[cat], &Move{Tab: tab, Category: cat, Reason: "model: " + host})
		}
	}

	return r
}

// categoryColors follows the browser's fixed group palette.
var categoryColors = map[types.Category]string{
	types.CatWork:          "blue",
	types.CatResearch:      "purple",
	types.CatShopping:      "yellow",
	types.CatSocial:        "pink",
	types.CatEntertainment: "red",
	types.CatNews:          "orange",
	types.CatDev:           "cyan",
	types.CatOther:         "grey",
}

// displayName returns the group name used for a category bucket.
func displayName(cat types.Category) string {
	s := string(cat)
	if s == "" {
		return "Other"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// FormatDryRun returns a human-readable summary of proposed moves.
func FormatDryRun(r *Result) string {
	var b strings.Builder

	total := 0
	for _, cat := range types.Categories {
		moves := r.Moves[cat]
		if len(moves) == 0 {
			continue
		}
		total += len(moves)
		fmt.Fprintf(&b, "\n%s (%d):\n", displayName(cat), len(moves))
		for _, m := range moves {
			fmt.Fprintf(&b, "  - %s (%s)\n", m.Tab.Title, m.Reason)
		}
	}

	if total == 0 {
		b.WriteString("Nothing to group.\n")
	}
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "\nSkipped: %d unclassified tabs\n", r.Skipped)
	}

	return b.String()
}

// Apply creates one group per non-empty category and moves the tabs into it.
// A failed category is reported but does not stop the remaining ones.
func Apply(r *Result, rec *sync.Reconciler) error {
	var firstErr error
	for _, cat := range types.Categories {
		moves := r.Moves[cat]
		if len(moves) == 0 {
			continue
		}

		var tabIDs []int
		for _, m := range moves {
			if m.Tab.BrowserID != 0 {
				tabIDs = append(tabIDs, m.Tab.BrowserID)
			}
		}
		if len(tabIDs) == 0 {
			continue
		}

		if err := rec.CreateGroup(displayName(cat), cat, categoryColors[cat], tabIDs); err != nil {
			applog.Error("autogroup.apply", err, "category", string(cat))
			if firstErr == nil {
				firstErr = fmt.Errorf("create group %s: %w", displayName(cat), err)
			}
			continue
		}
		applog.Info("autogroup.applied", "category", string(cat), "tabs", len(tabIDs))
	}
	return firstErr
}
