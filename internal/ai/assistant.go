package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/ovsienko/jobsieve/internal/jobs"
	"github.com/ovsienko/jobsieve/internal/logger"
	"go.uber.org/zap"
)

// ErrUnavailable marks the inference endpoint as unreachable or erroring.
// The pipeline treats it as fatal for the rest of the run.
var ErrUnavailable = errors.New("inference endpoint unavailable")

// ParseError reports a model response that does not match the expected
// verdict format. The raw response is preserved for manual inspection.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Generator produces a single text completion for a prompt. Implementations
// wrap provider errors with ErrUnavailable.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Evaluator scores one posting against the resume and criteria.
type Evaluator interface {
	Evaluate(ctx context.Context, resume, criteria string, posting *jobs.Posting) (*jobs.Verdict, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Assistant builds the evaluation prompt, calls the generator and parses the
// response into a verdict. Provider-agnostic: the generator carries all
// endpoint specifics.
type Assistant struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewAssistant(generator Generator, log *zap.Logger, maxLogLength int) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Assistant{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

func (a *Assistant) Evaluate(ctx context.Context, resume, criteria string, posting *jobs.Posting) (*jobs.Verdict, error) {
	if posting == nil {
		return nil, fmt.Errorf("posting is required")
	}

	prompt, err := BuildPrompt(resume, criteria, posting)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("generate content request",
		zap.String("posting_key", posting.Key),
		zap.String("model", a.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("generate content response",
		zap.String("posting_key", posting.Key),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	verdict, err := ParseVerdict(raw)
	if err != nil {
		return nil, err
	}

	verdict.Key = posting.Key
	verdict.EvaluatedAt = time.Now().UTC()

	return verdict, nil
}

// BuildPrompt embeds the resume, the criteria and the posting verbatim into
// the fixed template with explicit delimiters.
func BuildPrompt(resume, criteria string, posting *jobs.Posting) (string, error) {
	jobPayload := map[string]string{
		"title":       posting.Title,
		"company":     posting.Company,
		"location":    posting.Location,
		"description": posting.Description,
	}

	jobJSON, err := json.MarshalIndent(jobPayload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	if strings.TrimSpace(criteria) == "" {
		criteria = "none"
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{RESUME}}", resume)
	prompt = strings.ReplaceAll(prompt, "{{CRITERIA}}", criteria)
	prompt = strings.ReplaceAll(prompt, "{{JOB_JSON}}", string(jobJSON))

	return prompt, nil
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// ParseVerdict parses the model response into a verdict with a label from the
// fixed vocabulary. Malformed responses return a *ParseError carrying the raw
// text.
func ParseVerdict(raw string) (*jobs.Verdict, error) {
	cleaned := extractJSON(raw)
	cleaned = trailingCommaRe.ReplaceAllString(cleaned, "$1")

	var data struct {
		Verdict       string          `json:"verdict"`
		YearsRequired json.RawMessage `json:"years_required"`
		Reasoning     string          `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	label := strings.ToLower(strings.TrimSpace(data.Verdict))
	// some models grade borderline fits as "maybe+"; fold it into maybe
	label = strings.TrimSuffix(label, "+")

	switch label {
	case jobs.VerdictYes, jobs.VerdictNo, jobs.VerdictMaybe:
	default:
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("invalid verdict label %q", data.Verdict)}
	}

	return &jobs.Verdict{
		Label:         label,
		YearsRequired: coerceString(data.YearsRequired),
		Reasoning:     strings.TrimSpace(data.Reasoning),
		Raw:           raw,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// coerceString renders years_required whether the model returned a number or
// a string like "unspecified".
func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	return strings.TrimSpace(string(raw))
}
