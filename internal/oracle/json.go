package oracle

import (
	"encoding/json"
	"log"
	"strings"
)

// verdictResponse is the JSON object the fallback LLM is asked to emit.
type verdictResponse struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores"`
}

// parseVerdictResponse extracts the verdict object from an LLM answer. The
// model sometimes wraps the JSON in markdown fences or prose, so everything
// outside the outermost braces is discarded. Returns nil when no verdict can
// be decoded.
func parseVerdictResponse(text string) *verdictResponse {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil
	}

	var v verdictResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		log.Printf("Failed to parse classifier response as JSON: %v", err)
		return nil
	}
	return &v
}
