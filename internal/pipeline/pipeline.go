package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovsienko/jobsieve/internal/ai"
	"github.com/ovsienko/jobsieve/internal/boards"
	"github.com/ovsienko/jobsieve/internal/jobs"
	"github.com/ovsienko/jobsieve/internal/ledger"
	"go.uber.org/zap"
)

// Target pairs a board adapter with the search parameters configured for it.
type Target struct {
	Source boards.Source
	Query  boards.Query
}

// Row is one entry of the run result: a posting with its verdict.
type Row struct {
	Posting *jobs.Posting
	Verdict *jobs.Verdict
}

// BoardError records a board that was skipped for the rest of the run.
type BoardError struct {
	Board string
	Err   error
}

// Result accumulates the annotated postings of one run in processing order.
// No identity key appears in Rows more than once.
type Result struct {
	Rows          []Row
	Fetched       int
	Duplicates    int
	Evaluated     int
	Failed        int
	SkippedBoards []BoardError
}

// LogSummary prints the human-readable run counts. Called on every exit path.
func (r *Result) LogSummary(log *zap.Logger) {
	skipped := make([]string, 0, len(r.SkippedBoards))
	for _, be := range r.SkippedBoards {
		skipped = append(skipped, be.Board)
	}

	log.Info("run summary",
		zap.Int("postings_fetched", r.Fetched),
		zap.Int("duplicates_skipped", r.Duplicates),
		zap.Int("evaluated", r.Evaluated),
		zap.Int("evaluation_failures", r.Failed),
		zap.Strings("boards_skipped", skipped),
	)
}

// Pipeline drives one run: fetch postings per target, skip duplicates via the
// ledger, evaluate the rest sequentially and accumulate rows. Single-threaded;
// the inference server sees at most one request at a time.
type Pipeline struct {
	targets   []Target
	ledger    ledger.Ledger
	evaluator ai.Evaluator
	resume    string
	criteria  string
	logger    *zap.Logger
}

func New(targets []Target, l ledger.Ledger, evaluator ai.Evaluator, resume, criteria string, log *zap.Logger) *Pipeline {
	return &Pipeline{
		targets:   targets,
		ledger:    l,
		evaluator: evaluator,
		resume:    resume,
		criteria:  criteria,
		logger:    log,
	}
}

// Collect fetches postings from every target in configuration order. A board
// that fails is recorded and skipped; the others are unaffected.
func (p *Pipeline) Collect(ctx context.Context) (*jobs.Postings, []BoardError) {
	postings := &jobs.Postings{}
	var skipped []BoardError

	for _, target := range p.targets {
		fetched, err := target.Source.Fetch(ctx, target.Query)
		if err != nil {
			p.logger.Warn("board fetch failed, skipping",
				zap.String("board", target.Source.Name()),
				zap.Error(err),
			)
			skipped = append(skipped, BoardError{Board: target.Source.Name(), Err: err})
			continue
		}

		p.logger.Info("fetched postings",
			zap.String("board", target.Source.Name()),
			zap.String("keywords", target.Query.Keywords),
			zap.Int("count", len(fetched)),
		)
		postings.Append(fetched...)
	}

	return postings, skipped
}

// Evaluate runs the dedup check and the evaluator over the fetched postings.
// A malformed model response records the posting with an unknown verdict and
// the raw text retained. An unavailable inference endpoint stops the run; the
// returned Result still holds everything accumulated so far.
func (p *Pipeline) Evaluate(ctx context.Context, postings *jobs.Postings, skipped []BoardError) (*Result, error) {
	res := &Result{
		Fetched:       postings.Len(),
		SkippedBoards: skipped,
	}

	for _, posting := range postings.Items {
		seen, err := p.ledger.Seen(posting.Key)
		if err != nil {
			return res, fmt.Errorf("ledger lookup for %s: %w", posting.Key, err)
		}
		if seen {
			res.Duplicates++
			p.logger.Debug("skipping duplicate posting",
				zap.String("posting_key", posting.Key),
				zap.String("title", posting.Title),
			)
			continue
		}

		verdict, err := p.evaluator.Evaluate(ctx, p.resume, p.criteria, posting)
		if err != nil {
			var parseErr *ai.ParseError
			switch {
			case errors.As(err, &parseErr):
				res.Failed++
				p.logger.Warn("model response not parseable, recording unknown verdict",
					zap.String("posting_key", posting.Key),
					zap.Error(err),
				)
				verdict = &jobs.Verdict{
					Key:         posting.Key,
					Label:       jobs.VerdictUnknown,
					Raw:         parseErr.Raw,
					EvaluatedAt: time.Now().UTC(),
				}
			default:
				// InferenceUnavailable and anything unexpected end the
				// run; rows collected so far are preserved for the flush.
				return res, fmt.Errorf("evaluating posting %s: %w", posting.Key, err)
			}
		} else {
			res.Evaluated++
			p.logger.Info("posting evaluated",
				zap.String("posting_key", posting.Key),
				zap.String("title", posting.Title),
				zap.String("verdict", verdict.Label),
			)
		}

		if err := p.ledger.Mark(posting.Key, posting.Board, posting.URL); err != nil {
			return res, fmt.Errorf("ledger mark for %s: %w", posting.Key, err)
		}

		res.Rows = append(res.Rows, Row{Posting: posting, Verdict: verdict})
	}

	return res, nil
}

// Run executes one full pass: collect, then evaluate.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	postings, skipped := p.Collect(ctx)
	return p.Evaluate(ctx, postings, skipped)
}
