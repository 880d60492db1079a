package oracle

import (
	"testing"
)

func TestParseVerdictResponsePlain(t *testing.T) {
	v := parseVerdictResponse(`{"label": "positive", "scores": {"positive": 0.9, "neutral": 0.1}}`)
	if v == nil {
		t.Fatal("expected non-nil verdict")
	}
	if v.Label != "positive" {
		t.Errorf("expected label 'positive', got %q", v.Label)
	}
	if v.Scores["positive"] != 0.9 {
		t.Errorf("expected positive score 0.9, got %v", v.Scores["positive"])
	}
}

func TestParseVerdictResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"label\": \"neutral\", \"scores\": {\"neutral\": 0.7}}\n```"
	v := parseVerdictResponse(text)
	if v == nil {
		t.Fatal("expected non-nil verdict")
	}
	if v.Label != "neutral" || v.Scores["neutral"] != 0.7 {
		t.Errorf("unexpected verdict %+v", v)
	}
}

func TestParseVerdictResponseWithSurroundingProse(t *testing.T) {
	text := `Sure, here is the classification: {"label": "negative", "scores": {"negative": 0.8}} Hope this helps!`
	v := parseVerdictResponse(text)
	if v == nil {
		t.Fatal("expected non-nil verdict")
	}
	if v.Label != "negative" {
		t.Errorf("expected label 'negative', got %q", v.Label)
	}
}

func TestParseVerdictResponseLabelOnly(t *testing.T) {
	v := parseVerdictResponse(`{"label": "neutral"}`)
	if v == nil {
		t.Fatal("expected non-nil verdict")
	}
	if v.Label != "neutral" || len(v.Scores) != 0 {
		t.Errorf("unexpected verdict %+v", v)
	}
}

func TestParseVerdictResponseInvalid(t *testing.T) {
	if parseVerdictResponse("no json here") != nil {
		t.Error("expected nil for text without braces")
	}
	if parseVerdictResponse("") != nil {
		t.Error("expected nil for empty string")
	}
	if parseVerdictResponse(`{"label": broken`) != nil {
		t.Error("expected nil for malformed JSON")
	}
}
