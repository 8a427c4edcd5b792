// Package service runs a full document review: lint, prompt the model,
// validate its edits and return the resulting diff.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/docqa/internal/llm"
	"github.com/yaklabco/docqa/internal/logging"
	"github.com/yaklabco/docqa/internal/parsing"
	"github.com/yaklabco/docqa/internal/prompt"
	"github.com/yaklabco/docqa/pkg/config"
	"github.com/yaklabco/docqa/pkg/dedupe"
	"github.com/yaklabco/docqa/pkg/langdetect"
	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/pipeline"
	"github.com/yaklabco/docqa/pkg/plan"
	"github.com/yaklabco/docqa/pkg/region"
)

var (
	// ErrBackend wraps failures to reach a generation backend.
	ErrBackend = errors.New("generation backend failed")

	// ErrDocTooLarge is returned when a document exceeds the configured size limit.
	ErrDocTooLarge = errors.New("document too large")
)

// Backend generates model output. *llm.Router implements it.
type Backend interface {
	PrimaryHealthy(ctx context.Context) bool
	Generate(ctx context.Context, prompt string, primaryHealthy bool) (llm.Generation, error)
}

// Linter produces prose findings. *prose.Linter implements it.
type Linter interface {
	Lint(ctx context.Context, doc string) ([]model.LintFinding, error)
}

// Observer receives per-attempt events, typically for metrics.
type Observer interface {
	Malformed(kind plan.FailureKind)
	PipelineDuration(d time.Duration)
	DuplicatesFiltered(n int)
}

type nopObserver struct{}

func (nopObserver) Malformed(plan.FailureKind)     {}
func (nopObserver) PipelineDuration(time.Duration) {}
func (nopObserver) DuplicatesFiltered(int)         {}

// Response is the result of a successful review.
type Response struct {
	Version         string               `json:"version"`
	Diff            string               `json:"diff"`
	UpdatedDoc      string               `json:"updated_doc"`
	ModelReview     model.ReviewResponse `json:"model_review"`
	LintIssues      []model.LintFinding  `json:"lint_issues"`
	Duplicates      []dedupe.Duplicate   `json:"duplicates,omitempty"`
	CodeEditAllowed bool                 `json:"code_edit_allowed"`
	Attempts        int                  `json:"attempts"`
	Backend         string               `json:"backend"`
}

// ExhaustedError is returned when every attempt produced a malformed tool call.
type ExhaustedError struct {
	Attempts int
	Last     *plan.MalformedToolCall
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no valid review after %d attempts: %s", e.Attempts, e.Reason())
}

func (e *ExhaustedError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

// Reason returns the last rejection reason, or "unknown".
func (e *ExhaustedError) Reason() string {
	if e.Last == nil || e.Last.Reason == "" {
		return "unknown"
	}
	return e.Last.Reason
}

// Reviewer runs reviews against a backend.
type Reviewer struct {
	cfg      *config.Config
	backend  Backend
	linter   Linter
	observer Observer
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithLinter sets the prose linter. Without one, or with linting disabled in
// the config, reviews carry no lint findings.
func WithLinter(l Linter) Option {
	return func(r *Reviewer) { r.linter = l }
}

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(r *Reviewer) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewReviewer creates a Reviewer.
func NewReviewer(cfg *config.Config, backend Backend, opts ...Option) *Reviewer {
	r := &Reviewer{cfg: cfg, backend: backend, observer: nopObserver{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Review reviews doc. It returns *ExhaustedError when no attempt produced an
// applicable edit batch and wraps ErrBackend when the model could not be reached.
func (r *Reviewer) Review(ctx context.Context, doc string) (*Response, error) {
	if limit := r.cfg.Review.MaxDocBytes; limit > 0 && len(doc) > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrDocTooLarge, len(doc), limit)
	}

	detected := region.Detect(doc)
	codeEditAllowed := r.cfg.CodeEditAllowed(detected.CodeRatio)

	ctx = logging.With(ctx,
		logging.FieldDocBytes, len(doc),
		logging.FieldCodeRatio, detected.CodeRatio,
		logging.FieldCodeEditAllowed, codeEditAllowed,
	)
	logger := logging.FromContext(ctx)

	findings, healthy, err := r.prepare(ctx, doc)
	if err != nil {
		return nil, err
	}

	opts := prompt.Options{AllowCodeEdits: codeEditAllowed, LintFindings: findings}
	if codeEditAllowed {
		opts.FenceHints = langdetect.FenceHints(doc, detected.Regions)
	}

	attempts := r.cfg.Attempts()
	var last *plan.MalformedToolCall

	for attempt := 1; attempt <= attempts; attempt++ {
		if last != nil {
			opts.Feedback = last.Reason
		}
		if attempt > 1 {
			// The primary may have recovered or failed since the last attempt.
			healthy = r.backend.PrimaryHealthy(ctx)
		}

		text, err := prompt.Build(doc, opts)
		if err != nil {
			return nil, fmt.Errorf("build prompt: %w", err)
		}

		gen, err := r.backend.Generate(ctx, text, healthy)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackend, err)
		}

		resp, err := r.apply(doc, gen, detected.Regions, codeEditAllowed, findings)
		if err == nil {
			resp.Attempts = attempt
			logger.Info("review accepted",
				logging.FieldAttempt, attempt,
				logging.FieldBackend, gen.Backend,
				logging.FieldIssues, len(resp.ModelReview.Issues),
				logging.FieldDuplicates, len(resp.Duplicates),
			)
			return resp, nil
		}

		mtc, ok := plan.AsMalformed(err)
		if !ok {
			return nil, err
		}
		r.observer.Malformed(mtc.Kind)
		logger.Warn("malformed tool call",
			logging.FieldAttempt, attempt,
			logging.FieldAttempts, attempts,
			logging.FieldBackend, gen.Backend,
			logging.FieldKind, mtc.Kind,
			logging.FieldReason, mtc.Reason,
		)
		last = mtc
	}

	return nil, &ExhaustedError{Attempts: attempts, Last: last}
}

// prepare lints doc and checks primary backend health concurrently.
func (r *Reviewer) prepare(ctx context.Context, doc string) ([]model.LintFinding, bool, error) {
	var (
		findings []model.LintFinding
		healthy  bool
	)

	group, gctx := errgroup.WithContext(ctx)
	if r.linter != nil && r.cfg.Linter.Enabled {
		group.Go(func() error {
			var err error
			findings, err = r.linter.Lint(gctx, doc)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				logging.FromContext(ctx).Warn("lint failed; continuing without findings", logging.FieldError, err)
				findings = nil
			}
			return nil
		})
	}
	group.Go(func() error {
		healthy = r.backend.PrimaryHealthy(gctx)
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, false, fmt.Errorf("prepare review: %w", err)
	}

	if findings == nil {
		findings = []model.LintFinding{}
	}
	return findings, healthy, nil
}

// apply parses one model answer and runs it through the edit pipeline.
func (r *Reviewer) apply(
	doc string,
	gen llm.Generation,
	regions []region.Region,
	codeEditAllowed bool,
	findings []model.LintFinding,
) (*Response, error) {
	review, err := parsing.ParseReview(gen.Text)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := pipeline.Run(pipeline.Input{
		Document:        doc,
		CodeEditAllowed: codeEditAllowed,
		Issues:          review.Issues,
		LintFindings:    findings,
		Regions:         regions,
		Options:         pipeline.Options{SkipVerify: !r.cfg.Review.VerifyDiff},
	})
	r.observer.PipelineDuration(time.Since(start))
	if err != nil {
		return nil, err
	}
	r.observer.DuplicatesFiltered(len(out.Duplicates))

	accepted := *review
	accepted.Issues = out.AcceptedIssues
	if accepted.Issues == nil {
		accepted.Issues = []model.Issue{}
	}

	return &Response{
		Version:         review.Version,
		Diff:            out.Diff,
		UpdatedDoc:      out.UpdatedDocument,
		ModelReview:     accepted,
		LintIssues:      out.LintFindings,
		Duplicates:      out.Duplicates,
		CodeEditAllowed: codeEditAllowed,
		Backend:         gen.Backend,
	}, nil
}
