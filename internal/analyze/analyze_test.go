package analyze

import (
	"context"
	"errors"
	"testing"

	"github.com/empenoso/comment-sentiment-analyzer/internal/config"
	"github.com/empenoso/comment-sentiment-analyzer/internal/oracle"
)

// mockProvider implements oracle.Provider for testing and counts calls.
type mockProvider struct {
	verdict oracle.Verdict
	err     error
	calls   int
}

func (m *mockProvider) Classify(_ context.Context, _ string) (oracle.Verdict, error) {
	m.calls++
	return m.verdict, m.err
}

func (m *mockProvider) Load(_ context.Context) (string, error) { return "cpu", nil }
func (m *mockProvider) IsConfigured() bool                     { return true }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("", "")
	if err != nil {
		t.Fatalf("failed to load default config: %v", err)
	}
	cfg.Filter.PositiveThreshold = 0.8
	cfg.Filter.MinCommentLength = 10
	cfg.Filter.ExcludeAuthors = []string{"empenoso"}
	return cfg
}

func positiveVerdict(score float64) oracle.Verdict {
	return oracle.Verdict{Label: "positive", Scores: []float64{0.1, 0.2, score}}
}

const longText = "Это достаточно длинный комментарий"

func TestExcludedAuthorNeverPositive(t *testing.T) {
	mock := &mockProvider{verdict: positiveVerdict(1.0)}
	a := New(testConfig(t), mock)

	ok, err := a.IsPositive(context.Background(), longText, "empenoso")
	if err != nil {
		t.Fatalf("IsPositive failed: %v", err)
	}
	if ok {
		t.Error("excluded author must never be positive")
	}
	if mock.calls != 0 {
		t.Errorf("expected no oracle calls for excluded author, got %d", mock.calls)
	}
}

func TestShortTextSkipsOracle(t *testing.T) {
	mock := &mockProvider{verdict: positiveVerdict(1.0)}
	a := New(testConfig(t), mock)

	ok, err := a.IsPositive(context.Background(), "Класс!", "vasya")
	if err != nil {
		t.Fatalf("IsPositive failed: %v", err)
	}
	if ok {
		t.Error("text below minimum length must not be positive")
	}
	if mock.calls != 0 {
		t.Errorf("expected no oracle calls for short text, got %d", mock.calls)
	}
}

func TestMinLengthCountsRunes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Filter.MinCommentLength = 7
	mock := &mockProvider{verdict: positiveVerdict(1.0)}
	a := New(cfg, mock)

	// 7 Cyrillic runes, well over 7 bytes.
	ok, err := a.IsPositive(context.Background(), "спасибо", "vasya")
	if err != nil {
		t.Fatalf("IsPositive failed: %v", err)
	}
	if !ok {
		t.Error("expected 7-rune text to pass a 7-rune minimum")
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 oracle call, got %d", mock.calls)
	}
}

func TestPositiveAboveThreshold(t *testing.T) {
	a := New(testConfig(t), &mockProvider{verdict: positiveVerdict(0.85)})
	ok, err := a.IsPositive(context.Background(), longText, "vasya")
	if err != nil {
		t.Fatalf("IsPositive failed: %v", err)
	}
	if !ok {
		t.Error("expected positive verdict above threshold")
	}
}

func TestPositiveAtExactThreshold(t *testing.T) {
	// The comparison is >=, so a score exactly at the threshold qualifies.
	// With the default threshold of 1.0 this is the common path.
	a := New(testConfig(t), &mockProvider{verdict: positiveVerdict(0.8)})
	ok, err := a.IsPositive(context.Background(), longText, "vasya")
	if err != nil {
		t.Fatalf("IsPositive failed: %v", err)
	}
	if !ok {
		t.Error("score equal to the threshold must qualify")
	}

	cfg := testConfig(t)
	cfg.Filter.PositiveThreshold = 1.0
	a = New(cfg, &mockProvider{verdict: positiveVerdict(1.0)})
	ok, err = a.IsPositive(context.Background(), longText, "vasya")
	if err != nil {
		t.Fatalf("IsPositive failed: %v", err)
	}
	if !ok {
		t.Error("full confidence must qualify at the default threshold of 1.0")
	}
}

func TestPositiveBelowThreshold(t *testing.T) {
	a := New(testConfig(t), &mockProvider{verdict: positiveVerdict(0.5)})
	ok, _ := a.IsPositive(context.Background(), longText, "vasya")
	if ok {
		t.Error("positive label below threshold must not qualify")
	}
}

func TestNeutralWithPraiseKeyword(t *testing.T) {
	neutral := oracle.Verdict{Label: "neutral", Scores: []float64{0.1, 0.9, 0.2}}
	a := New(testConfig(t), &mockProvider{verdict: neutral})

	ok, err := a.IsPositive(context.Background(), "СПАСИБО за разбор, очень помогло", "vasya")
	if err != nil {
		t.Fatalf("IsPositive failed: %v", err)
	}
	if !ok {
		t.Error("neutral verdict with praise keyword should qualify")
	}

	ok, _ = a.IsPositive(context.Background(), "Нейтральный комментарий без похвалы", "vasya")
	if ok {
		t.Error("neutral verdict without keywords must not qualify")
	}
}

func TestNegativeNeverPositive(t *testing.T) {
	negative := oracle.Verdict{Label: "negative", Scores: []float64{0.95, 0.1, 0.1}}
	a := New(testConfig(t), &mockProvider{verdict: negative})

	// Keywords do not rescue a negative verdict.
	ok, _ := a.IsPositive(context.Background(), "Спасибо, но статья ужасная", "vasya")
	if ok {
		t.Error("negative verdict must never qualify")
	}
}

func TestOracleErrorPropagates(t *testing.T) {
	a := New(testConfig(t), &mockProvider{err: errors.New("server down")})
	ok, err := a.IsPositive(context.Background(), longText, "vasya")
	if err == nil {
		t.Fatal("expected error from failing oracle")
	}
	if ok {
		t.Error("comment must not be positive on oracle failure")
	}
}

func TestShortScoreVectorIsSafe(t *testing.T) {
	// A provider that claims positive but returns too few scores must not
	// panic and must not qualify.
	broken := oracle.Verdict{Label: "positive", Scores: []float64{0.9}}
	a := New(testConfig(t), &mockProvider{verdict: broken})

	ok, err := a.IsPositive(context.Background(), longText, "vasya")
	if err != nil {
		t.Fatalf("IsPositive failed: %v", err)
	}
	if ok {
		t.Error("truncated score vector must not qualify")
	}
}
