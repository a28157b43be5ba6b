package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ovsienko/jobsieve/internal/ai"
	"github.com/ovsienko/jobsieve/internal/boards"
	"github.com/ovsienko/jobsieve/internal/jobs"
	"github.com/ovsienko/jobsieve/internal/ledger"
	"go.uber.org/zap"
)

type stubSource struct {
	name     string
	postings []*jobs.Posting
	err      error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, boards.Query) ([]*jobs.Posting, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.postings, nil
}

// stubEvaluator labels every posting "yes" unless overridden per key.
type stubEvaluator struct {
	calls    int
	failAt   int // 0-indexed call at which the endpoint goes down; -1 = never
	parseFor map[string]bool
}

func newStubEvaluator() *stubEvaluator {
	return &stubEvaluator{failAt: -1, parseFor: map[string]bool{}}
}

func (e *stubEvaluator) Evaluate(_ context.Context, _, _ string, p *jobs.Posting) (*jobs.Verdict, error) {
	if e.failAt >= 0 && e.calls >= e.failAt {
		return nil, fmt.Errorf("post completion: %w", ai.ErrUnavailable)
	}
	e.calls++

	if e.parseFor[p.Key] {
		return nil, &ai.ParseError{Raw: "I cannot answer in JSON.", Err: errors.New("invalid verdict label")}
	}

	return &jobs.Verdict{
		Key:         p.Key,
		Label:       jobs.VerdictYes,
		Reasoning:   "fits",
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

func posting(title, url string) *jobs.Posting {
	return &jobs.Posting{
		Key:     jobs.Key(url, title, "acme"),
		Title:   title,
		Company: "acme",
		URL:     url,
	}
}

func newPipeline(targets []Target, l ledger.Ledger, e ai.Evaluator) *Pipeline {
	return New(targets, l, e, "resume", "criteria", zap.NewNop())
}

func TestRunDeduplicatesAcrossBoards(t *testing.T) {
	t.Parallel()

	shared := posting("Go Developer", "https://example.com/jobs/1")

	targets := []Target{
		{Source: &stubSource{name: "lever", postings: []*jobs.Posting{
			shared,
			posting("Backend Engineer", "https://example.com/jobs/2"),
			posting("SRE", "https://example.com/jobs/3"),
		}}},
		{Source: &stubSource{name: "greenhouse", postings: []*jobs.Posting{
			posting("Go Developer", "https://example.com/jobs/1"), // same identity, other board
			posting("Platform Engineer", "https://example.com/jobs/4"),
			posting("Data Engineer", "https://example.com/jobs/5"),
		}}},
	}

	res, err := newPipeline(targets, ledger.NewMemory(), newStubEvaluator()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(res.Rows))
	}
	if res.Fetched != 6 || res.Duplicates != 1 || res.Evaluated != 5 {
		t.Fatalf("unexpected counters: %+v", res)
	}

	keys := map[string]bool{}
	for _, row := range res.Rows {
		if keys[row.Posting.Key] {
			t.Fatalf("duplicate key in result: %s", row.Posting.Key)
		}
		keys[row.Posting.Key] = true
		if row.Verdict == nil || row.Verdict.Key != row.Posting.Key {
			t.Fatalf("verdict does not reference its posting: %+v", row)
		}
	}

	// processing order follows configuration order
	if res.Rows[0].Posting.Title != "Go Developer" || res.Rows[4].Posting.Title != "Data Engineer" {
		t.Fatalf("unexpected processing order")
	}
}

func TestRunIsolatesUnavailableBoard(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{Source: &stubSource{name: "linkedin", err: fmt.Errorf("linkedin search: %w", boards.ErrUnavailable)}},
		{Source: &stubSource{name: "lever", postings: []*jobs.Posting{
			posting("Go Developer", "https://example.com/jobs/1"),
			posting("SRE", "https://example.com/jobs/2"),
		}}},
	}

	res, err := newPipeline(targets, ledger.NewMemory(), newStubEvaluator()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Rows) != 2 {
		t.Fatalf("expected postings from the healthy board, got %d rows", len(res.Rows))
	}
	if len(res.SkippedBoards) != 1 || res.SkippedBoards[0].Board != "linkedin" {
		t.Fatalf("expected linkedin to be recorded as skipped: %+v", res.SkippedBoards)
	}
	if !errors.Is(res.SkippedBoards[0].Err, boards.ErrUnavailable) {
		t.Fatalf("expected recorded error to wrap ErrUnavailable")
	}
}

func TestRunRecordsUnknownVerdictOnParseFailure(t *testing.T) {
	t.Parallel()

	bad := posting("Go Developer", "https://example.com/jobs/1")
	good := posting("SRE", "https://example.com/jobs/2")

	evaluator := newStubEvaluator()
	evaluator.parseFor[bad.Key] = true

	targets := []Target{
		{Source: &stubSource{name: "lever", postings: []*jobs.Posting{bad, good}}},
	}

	res, err := newPipeline(targets, ledger.NewMemory(), evaluator).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Rows) != 2 {
		t.Fatalf("expected both postings recorded, got %d", len(res.Rows))
	}
	if res.Failed != 1 || res.Evaluated != 1 {
		t.Fatalf("unexpected counters: %+v", res)
	}

	first := res.Rows[0].Verdict
	if first.Label != jobs.VerdictUnknown {
		t.Fatalf("expected unknown verdict, got %q", first.Label)
	}
	if first.Raw != "I cannot answer in JSON." {
		t.Fatalf("expected raw response retained, got %q", first.Raw)
	}
	if res.Rows[1].Verdict.Label != jobs.VerdictYes {
		t.Fatalf("expected processing to continue after the parse failure")
	}
}

func TestRunAbortsWhenInferenceUnavailable(t *testing.T) {
	t.Parallel()

	var items []*jobs.Posting
	for i := 0; i < 4; i++ {
		items = append(items, posting(fmt.Sprintf("Role %d", i), fmt.Sprintf("https://example.com/jobs/%d", i)))
	}

	evaluator := newStubEvaluator()
	evaluator.failAt = 2 // endpoint dies before the third posting

	targets := []Target{{Source: &stubSource{name: "lever", postings: items}}}

	res, err := newPipeline(targets, ledger.NewMemory(), evaluator).Run(context.Background())
	if !errors.Is(err, ai.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if len(res.Rows) != 2 {
		t.Fatalf("expected exactly the 2 postings processed before the failure, got %d", len(res.Rows))
	}
	if res.Evaluated != 2 {
		t.Fatalf("unexpected counters: %+v", res)
	}
}

func TestRunIsIdempotentWithPersistedLedger(t *testing.T) {
	t.Parallel()

	items := []*jobs.Posting{
		posting("Go Developer", "https://example.com/jobs/1"),
		posting("SRE", "https://example.com/jobs/2"),
	}
	targets := []Target{{Source: &stubSource{name: "lever", postings: items}}}

	shared := ledger.NewMemory() // stands in for the durable ledger

	first, err := newPipeline(targets, shared, newStubEvaluator()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Rows) != 2 {
		t.Fatalf("expected 2 rows on first run, got %d", len(first.Rows))
	}

	second, err := newPipeline(targets, shared, newStubEvaluator()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Rows) != 0 || second.Evaluated != 0 {
		t.Fatalf("expected zero new evaluations on second run, got %+v", second)
	}
	if second.Duplicates != 2 {
		t.Fatalf("expected both postings counted as duplicates, got %d", second.Duplicates)
	}
}
