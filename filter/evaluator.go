package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/grister/grist"
)

// EvaluatorOption configures an Evaluator
type EvaluatorOption func(*Evaluator)

// WithWorkers sets the number of goroutines used for large inputs
func WithWorkers(workers int) EvaluatorOption {
	return func(e *Evaluator) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

// WithBatchSize sets the chunk size below which evaluation is sequential
func WithBatchSize(size int) EvaluatorOption {
	return func(e *Evaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// WithStrict makes evaluation errors fail the run instead of skipping the record
func WithStrict(strict bool) EvaluatorOption {
	return func(e *Evaluator) {
		e.strict = strict
	}
}

// Evaluator applies a program to record lists
type Evaluator struct {
	workers   int
	batchSize int
	strict    bool
}

// NewEvaluator creates an Evaluator
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		workers:   runtime.GOMAXPROCS(0),
		batchSize: 500,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Records returns the matching records in their original order. Records the
// program fails on are skipped; in strict mode the first failure stops the run.
func (e *Evaluator) Records(ctx context.Context, p *Program, records []grist.Record) ([]grist.Record, error) {
	if len(records) <= e.batchSize {
		return e.matchAll(p, records)
	}

	chunks := (len(records) + e.batchSize - 1) / e.batchSize
	results := make([][]grist.Record, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range chunks {
		start := i * e.batchSize
		end := min(start+e.batchSize, len(records))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			matched, err := e.matchAll(p, records[start:end])
			results[i] = matched
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []grist.Record
	for _, chunk := range results {
		out = append(out, chunk...)
	}
	return out, nil
}

func (e *Evaluator) matchAll(p *Program, records []grist.Record) ([]grist.Record, error) {
	var out []grist.Record
	for _, record := range records {
		ok, err := p.Match(record)
		if err != nil {
			if e.strict {
				return nil, err
			}
			continue
		}
		if ok {
			out = append(out, record)
		}
	}
	return out, nil
}
