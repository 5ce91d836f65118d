package suggest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lotas/tabgruppen/internal/types"
)

const classifyPromptTemplate = `Classify this set of browser tabs into exactly one category: work, research, shopping, social, entertainment, news, dev, other

- work: email, calendars, docs, project trackers, company tools
- research: papers, documentation read for learning, reference material
- shopping: stores, product pages, price comparisons
- social: social networks, forums, chat
- entertainment: video, music, games
- news: news sites, current events
- dev: code hosting, CI, issue trackers, API docs used while coding
- other: anything that fits none of the above

Tabs:
%s%s
Respond with ONLY one word: work, research, shopping, social, entertainment, news, dev, other`

// BuildPrompt constructs the classification prompt from tab lines and optional rules.
func BuildPrompt(tabLines, rules string) string {
	rulesSection := ""
	if rules != "" {
		rulesSection = "\n" + rules + "\n"
	}
	return fmt.Sprintf(classifyPromptTemplate, tabLines, rulesSection)
}

// ParseCategory parses an LLM response into a valid category.
func ParseCategory(response string) (types.Category, bool) {
	s := strings.TrimSpace(strings.ToLower(response))
	s = strings.Trim(s, `."'`)
	if types.ValidCategory(s) {
		return types.Category(s), true
	}
	return "", false
}

// RulesFilePath returns the path to the category rules file.
func RulesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tabgruppen", "category-rules.txt")
}

// LoadRules reads the rules file, returning empty string if it doesn't exist.
func LoadRules() string {
	data, err := os.ReadFile(RulesFilePath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// TabLines formats tabs as prompt input, truncated to the first 20.
func TabLines(tabs []*types.Tab) string {
	var sb strings.Builder
	for i, t := range tabs {
		if i >= 20 {
			fmt.Fprintf(&sb, "... and %d more\n", len(tabs)-i)
			break
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", t.Title, t.URL)
	}
	return sb.String()
}

// ClassifyTabs asks Ollama to pick a category for a set of tabs.
func ClassifyTabs(ctx context.Context, model, host string, tabs []*types.Tab) (types.Category, error) {
	rules := LoadRules()
	prompt := BuildPrompt(TabLines(tabs), rules)

	resp, err := generate(ctx, model, host, prompt)
	if err != nil {
		return "", err
	}

	cat, ok := ParseCategory(resp)
	if !ok {
		return "", fmt.Errorf("unexpected LLM response: %q", resp)
	}
	return cat, nil
}
