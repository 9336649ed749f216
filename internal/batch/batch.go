// Package batch migrates many documents concurrently against one Fixer.
package batch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/dynamic"
)

// Migrator is the part of *datafixer.Fixer the runner needs.
type Migrator interface {
	NewMigration(ref df.TypeRef, doc dynamic.Value) *df.Migration
}

// Job is one document to migrate. When Load is set it is called from the
// worker instead of reading Doc, so decoding runs in parallel too.
type Job struct {
	Name string
	Ref  df.TypeRef
	Doc  dynamic.Value
	Load func() (dynamic.Value, error)
}

// Result is the outcome for one Job. On failure Doc holds the input as it
// was loaded, or Null when loading failed.
type Result struct {
	Name string
	Doc  dynamic.Value
	From int
	To   int
	Err  error
}

// Runner fans jobs out over a bounded number of workers.
type Runner struct {
	m       Migrator
	workers int
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of documents migrated at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger for per-document outcomes.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Runner over m. It defaults to one worker.
func New(m Migrator, opts ...Option) *Runner {
	r := &Runner{m: m, workers: 1, logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run migrates every job and returns one result per job, in job order. A
// failed document never stops the others. Once ctx is done no further job
// is started; the remaining results carry the context error, which Run also
// returns.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	started := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		i, job := i, job
		started[i] = true
		g.Go(func() error {
			results[i] = r.one(gctx, job)
			return nil
		})
	}
	_ = g.Wait()

	err := ctx.Err()
	for i := range jobs {
		if !started[i] {
			results[i] = Result{Name: jobs[i].Name, Err: err}
		}
	}
	return results, err
}

func (r *Runner) one(ctx context.Context, job Job) Result {
	res := Result{Name: job.Name}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	doc := job.Doc
	if job.Load != nil {
		var err error
		if doc, err = job.Load(); err != nil {
			r.logger.Warn("failed to load document", zap.String("name", job.Name), zap.Error(err))
			res.Err = err
			return res
		}
	}

	m := r.m.NewMigration(job.Ref, doc)
	res.Doc, res.Err = m.Run()
	res.From, res.To = m.From(), m.To()
	if res.Err != nil {
		r.logger.Warn("failed to migrate document", zap.String("name", job.Name), zap.Error(res.Err))
	} else {
		r.logger.Debug("migrated document", zap.String("name", job.Name), zap.Int("from", res.From), zap.Int("to", res.To))
	}
	return res
}

// Failed counts the results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
