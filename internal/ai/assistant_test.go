package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ovsienko/jobsieve/internal/jobs"
	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func testPosting() *jobs.Posting {
	return &jobs.Posting{
		Key:         "k1",
		Title:       "Go Developer",
		Company:     "Acme",
		Location:    "Remote",
		Description: "Build services in Go.",
		Board:       "lever",
		URL:         "https://example.com/jobs/1",
	}
}

func TestAssistantEvaluate(t *testing.T) {
	stub := &stubGenerator{response: `{"verdict": "yes", "years_required": 2, "reasoning": "Stack matches"}`}
	assistant := NewAssistant(stub, zap.NewNop(), 0)

	verdict, err := assistant.Evaluate(context.Background(), "resume text", "remote only", testPosting())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if verdict.Label != jobs.VerdictYes {
		t.Fatalf("expected yes, got %q", verdict.Label)
	}
	if verdict.Key != "k1" {
		t.Fatalf("expected posting key on verdict, got %q", verdict.Key)
	}
	if verdict.YearsRequired != "2" {
		t.Fatalf("expected years_required 2, got %q", verdict.YearsRequired)
	}
	if verdict.Reasoning == "" {
		t.Fatalf("expected reasoning to be populated")
	}
	if verdict.EvaluatedAt.IsZero() {
		t.Fatalf("expected evaluation timestamp")
	}

	if !strings.Contains(stub.lastPrompt, "resume text") {
		t.Fatalf("expected resume embedded in prompt")
	}
	if !strings.Contains(stub.lastPrompt, "remote only") {
		t.Fatalf("expected criteria embedded in prompt")
	}
	if !strings.Contains(stub.lastPrompt, "Go Developer") {
		t.Fatalf("expected job title embedded in prompt")
	}
}

func TestAssistantEvaluatePropagatesGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: ErrUnavailable}
	assistant := NewAssistant(stub, zap.NewNop(), 0)

	_, err := assistant.Evaluate(context.Background(), "resume", "", testPosting())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		label     string
		years     string
		parseFail bool
	}{
		{
			name:  "plain json",
			raw:   `{"verdict": "no", "years_required": "5", "reasoning": "too senior"}`,
			label: jobs.VerdictNo,
			years: "5",
		},
		{
			name:  "fenced json",
			raw:   "```json\n{\"verdict\": \"maybe\", \"years_required\": \"unspecified\", \"reasoning\": \"partial match\"}\n```",
			label: jobs.VerdictMaybe,
			years: "unspecified",
		},
		{
			name:  "trailing comma",
			raw:   `{"verdict": "yes", "years_required": "1", "reasoning": "good fit",}`,
			label: jobs.VerdictYes,
			years: "1",
		},
		{
			name:  "maybe plus folds into maybe",
			raw:   `{"verdict": "maybe+", "years_required": "3", "reasoning": "stretch"}`,
			label: jobs.VerdictMaybe,
			years: "3",
		},
		{
			name:  "uppercase label",
			raw:   `{"verdict": "YES", "years_required": "2", "reasoning": "fits"}`,
			label: jobs.VerdictYes,
			years: "2",
		},
		{
			name:      "free text response",
			raw:       "I think you should apply to this one.",
			parseFail: true,
		},
		{
			name:      "unknown label",
			raw:       `{"verdict": "apply", "reasoning": "x"}`,
			parseFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verdict, err := ParseVerdict(tt.raw)
			if tt.parseFail {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected *ParseError, got %v", err)
				}
				if parseErr.Raw != tt.raw {
					t.Fatalf("expected raw response preserved, got %q", parseErr.Raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Label != tt.label {
				t.Fatalf("expected label %q, got %q", tt.label, verdict.Label)
			}
			if verdict.YearsRequired != tt.years {
				t.Fatalf("expected years %q, got %q", tt.years, verdict.YearsRequired)
			}
			if verdict.Raw != tt.raw {
				t.Fatalf("expected raw response retained on verdict")
			}
		})
	}
}
