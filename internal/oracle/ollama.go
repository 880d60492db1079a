package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const classifyPrompt = `You are a sentiment classifier for short reader comments (mostly Russian).

Classify the sentiment of the following comment.

Comment:
%s

Respond with ONLY this JSON:
{
    "label": %s,
    "scores": {%s}
}

Each score is an independent confidence between 0.0 and 1.0 for that label; they do not need to sum to 1.`

// OllamaProvider classifies by prompting a local Ollama LLM for a JSON
// verdict. Used when no dedicated sentiment server is available.
type OllamaProvider struct {
	Model     string
	BaseURL   string
	labels    LabelSet
	maxTokens int
	client    *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string, labels LabelSet, maxTokens int) *OllamaProvider {
	return &OllamaProvider{
		Model:     model,
		BaseURL:   baseURL,
		labels:    labels,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.available(ctx)
}

// available checks the model list under the caller's context.
func (o *OllamaProvider) available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	log.Printf("Ollama model %q not found", o.Model)
	return false
}

// Load verifies Ollama is reachable. LLM inference runs wherever the Ollama
// daemon put the model, so the reported device is the daemon itself.
func (o *OllamaProvider) Load(ctx context.Context) (string, error) {
	if !o.available(ctx) {
		return "", fmt.Errorf("ollama at %s is not serving model %q", o.BaseURL, o.Model)
	}
	return "ollama", nil
}

// Classify prompts the LLM for a JSON score object and maps it into the
// configured label order.
func (o *OllamaProvider) Classify(ctx context.Context, text string) (Verdict, error) {
	labels := o.labels.Labels()
	quoted := make([]string, len(labels))
	scoreFields := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", l)
		scoreFields[i] = fmt.Sprintf("%q: 0.0", l)
	}

	prompt := fmt.Sprintf(classifyPrompt,
		Truncate(text, o.maxTokens),
		strings.Join(quoted, " | "),
		strings.Join(scoreFields, ", "))

	responseText, err := o.generate(ctx, prompt)
	if err != nil {
		return Verdict{}, err
	}

	parsed := parseVerdictResponse(responseText)
	if parsed == nil {
		return Verdict{}, fmt.Errorf("unparseable classifier response: %s", responseText)
	}

	scores := make(map[string]float64, len(parsed.Scores))
	for label, score := range parsed.Scores {
		scores[strings.ToLower(label)] = score
	}
	if len(scores) == 0 {
		// Label-only answer: trust it with full confidence.
		if label := strings.ToLower(parsed.Label); o.labels.Index(label) >= 0 {
			scores[label] = 1.0
		}
	}
	if len(scores) == 0 {
		return Verdict{}, fmt.Errorf("classifier response carried no usable scores: %s", responseText)
	}

	return o.labels.verdict(scores), nil
}

// generate sends a chat request to Ollama and returns the raw response text.
func (o *OllamaProvider) generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
		"options": map[string]any{
			"num_predict": 256,
			"temperature": 0.0,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return result.Message.Content, nil
}
