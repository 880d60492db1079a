// Package oracle wraps the external sentiment model behind a Provider
// interface. The primary backend is an HTTP inference server running the
// pretrained classifier; a local Ollama LLM serves as fallback.
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

// Verdict is the outcome of classifying one text: the argmax label and the
// per-label confidence vector aligned to the configured label order. Scores
// are independent confidences and need not sum to 1.
type Verdict struct {
	Label  string
	Scores []float64
}

// Provider is the interface for classification backends.
type Provider interface {
	// Load verifies the backend is usable and returns the active compute
	// device. A failure here is fatal for the run.
	Load(ctx context.Context) (device string, err error)
	Classify(ctx context.Context, text string) (Verdict, error)
	IsConfigured() bool
}

// LabelSet is the ordered label vocabulary the model emits.
type LabelSet struct {
	order []string
	index map[string]int
}

// NewLabelSet creates a label set preserving the given order.
func NewLabelSet(order []string) LabelSet {
	idx := make(map[string]int, len(order))
	for i, label := range order {
		idx[label] = i
	}
	return LabelSet{order: order, index: idx}
}

// Labels returns the labels in vector order.
func (s LabelSet) Labels() []string { return s.order }

// Index returns the vector position of label, or -1.
func (s LabelSet) Index(label string) int {
	if i, ok := s.index[label]; ok {
		return i
	}
	return -1
}

// verdict assembles a Verdict from per-label scores, picking the argmax.
// Labels the model never mentioned stay at 0.
func (s LabelSet) verdict(scores map[string]float64) Verdict {
	vec := make([]float64, len(s.order))
	for label, score := range scores {
		if i := s.Index(label); i >= 0 {
			vec[i] = score
		}
	}
	best := 0
	for i := 1; i < len(vec); i++ {
		if vec[i] > vec[best] {
			best = i
		}
	}
	label := ""
	if len(s.order) > 0 {
		label = s.order[best]
	}
	return Verdict{Label: label, Scores: vec}
}

// Truncate caps text at maxTokens whitespace-separated tokens. The real
// tokenizer lives server-side; this client-side bound keeps requests sane
// without ever rejecting long input.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text
	}
	return strings.Join(fields[:maxTokens], " ")
}

// ServerProvider queries an HTTP inference server that exposes the
// pretrained classifier (HuggingFace pipeline wire format).
type ServerProvider struct {
	BaseURL   string
	Device    string
	labels    LabelSet
	maxTokens int
	client    *http.Client
}

// NewServerProvider creates a sentiment-server provider.
func NewServerProvider(baseURL, device string, labels LabelSet, maxTokens int) *ServerProvider {
	return &ServerProvider{
		BaseURL:   baseURL,
		Device:    device,
		labels:    labels,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks the server's health endpoint.
func (p *ServerProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", p.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Load checks the server and resolves the active device. When the device is
// "auto" the server's /info endpoint decides; without one we assume CPU.
func (p *ServerProvider) Load(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.BaseURL+"/health", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sentiment server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sentiment server health check returned %d", resp.StatusCode)
	}

	device := p.Device
	if device == "" || device == "auto" {
		device = p.probeDevice(ctx)
	}
	return device, nil
}

func (p *ServerProvider) probeDevice(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, "GET", p.BaseURL+"/info", nil)
	if err != nil {
		return "cpu"
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "cpu"
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "cpu"
	}

	var info struct {
		Device string `json:"device"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Device == "" {
		return "cpu"
	}
	return info.Device
}

// Classify sends the (truncated) text for inference and maps the returned
// label scores into the configured vector order.
func (p *ServerProvider) Classify(ctx context.Context, text string) (Verdict, error) {
	body := map[string]any{
		"inputs": Truncate(text, p.maxTokens),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Verdict{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL, bytes.NewReader(data))
	if err != nil {
		return Verdict{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("sentiment server error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Verdict{}, fmt.Errorf("sentiment server returned %d: %s", resp.StatusCode, string(respBody))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, fmt.Errorf("reading response: %w", err)
	}

	scores, err := parseLabelScores(raw)
	if err != nil {
		return Verdict{}, err
	}
	return p.labels.verdict(scores), nil
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// parseLabelScores accepts both the nested ([[{label,score}]]) and flat
// ([{label,score}]) pipeline response shapes.
func parseLabelScores(raw []byte) (map[string]float64, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return toScoreMap(nested[0]), nil
	}

	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return toScoreMap(flat), nil
	}

	return nil, fmt.Errorf("unexpected classification response: %s", string(raw))
}

func toScoreMap(pairs []labelScore) map[string]float64 {
	scores := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		scores[strings.ToLower(p.Label)] = p.Score
	}
	return scores
}

// CreateProvider creates a classification provider based on configuration:
// the sentiment server first, then the Ollama fallback. Returns nil when
// neither backend is reachable.
func CreateProvider(serverURL, device, ollamaModel, ollamaURL string, labels LabelSet, maxTokens int) Provider {
	if serverURL != "" {
		p := NewServerProvider(serverURL, device, labels, maxTokens)
		if p.IsConfigured() {
			log.Printf("Using sentiment server at %s", serverURL)
			return p
		}
		log.Println("Sentiment server not reachable, trying Ollama fallback...")
	}

	p := NewOllamaProvider(ollamaModel, ollamaURL, labels, maxTokens)
	if p.IsConfigured() {
		log.Printf("Using Ollama with model: %s", ollamaModel)
		return p
	}

	log.Println("No classifier available. Check the sentiment server or Ollama is running.")
	return nil
}
