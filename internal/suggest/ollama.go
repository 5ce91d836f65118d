package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const maxTextLen = 8000

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// generate sends a prompt to an Ollama instance and returns the raw response.
func generate(ctx context.Context, model, host, prompt string) (string, error) {
	reqBody := ollamaRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned HTTP %d", resp.StatusCode)
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	return result.Response, nil
}

const summaryPromptTemplate = `Summarize the following article. Provide a concise summary with key points.

---

%s`

// OllamaSummarize sends text to an Ollama instance and returns the summary.
func OllamaSummarize(ctx context.Context, model, host, text string) (string, error) {
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}
	return generate(ctx, model, host, fmt.Sprintf(summaryPromptTemplate, text))
}

const namePromptTemplate = `Suggest a short name (2-4 words) for a browser tab group containing these pages:

%s
Respond with ONLY the name, no quotes or punctuation.`

// SuggestName asks the LLM for a short group name based on tab titles.
func SuggestName(ctx context.Context, model, host string, titles []string) (string, error) {
	var sb strings.Builder
	for _, title := range titles {
		fmt.Fprintf(&sb, "- %s\n", title)
	}

	resp, err := generate(ctx, model, host, fmt.Sprintf(namePromptTemplate, sb.String()))
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(resp)
	name = strings.Trim(name, `"'`)
	if name == "" {
		return "", fmt.Errorf("empty name suggestion")
	}
	if len(name) > 60 {
		name = name[:60]
	}
	return name, nil
}
