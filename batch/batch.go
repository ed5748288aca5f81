package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/voxbrick/packer"
	"github.com/katalvlaran/voxbrick/structure"
	"github.com/katalvlaran/voxbrick/voxel"
)

var (
	// ErrOptionViolation indicates invalid Options.
	ErrOptionViolation = errors.New("batch: option violation")

	// ErrPanic indicates a job that panicked; the panic value is in the
	// wrapped message.
	ErrPanic = errors.New("batch: job panicked")
)

// Status is the outcome class of one job.
type Status int

const (
	// StatusDone means the job packed (and was persisted, with a Sink).
	StatusDone Status = iota
	// StatusFailed means packing or persisting returned an error.
	StatusFailed
	// StatusSkipped means the job ran out of time or the batch was canceled.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Job is one grid to pack. An empty ID is replaced by a random UUID.
type Job struct {
	ID   string
	Grid *voxel.Grid
	Pack packer.Options
}

// Outcome reports one job, in the same position as its Job.
type Outcome struct {
	ID      string
	Status  Status
	Result  *packer.Result
	Err     error
	Elapsed time.Duration
}

// Sink persists a finished structure.
type Sink interface {
	Write(ctx context.Context, id string, s *structure.Structure) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, id string, s *structure.Structure) error

// Write calls f.
func (f SinkFunc) Write(ctx context.Context, id string, s *structure.Structure) error {
	return f(ctx, id, s)
}

// DirSink writes <Dir>/<id>.txt and <Dir>/<id>.ldr.
type DirSink struct {
	Dir string
}

// Write implements Sink. Nothing is written once ctx is done.
func (d DirSink) Write(ctx context.Context, id string, s *structure.Structure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	ldr, err := s.Ldr()
	if err != nil {
		return err
	}
	files := []struct{ name, content string }{
		{id + ".txt", s.Txt()},
		{id + ".ldr", ldr},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(d.Dir, f.name), []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
	}
	return nil
}

// Options configures Run.
type Options struct {
	// Workers bounds concurrent jobs; 0 means GOMAXPROCS.
	Workers int
	// Timeout is the per-job wall-clock limit; 0 disables it.
	Timeout time.Duration
	// Sink, when set, persists every successful structure.
	Sink Sink
	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// DefaultOptions returns GOMAXPROCS workers, a one-minute timeout and no
// sink.
func DefaultOptions() Options {
	return Options{
		Workers: runtime.GOMAXPROCS(0),
		Timeout: time.Minute,
		Logger:  zap.NewNop(),
	}
}

// Run packs every job and returns one Outcome per job, in job order. It
// returns only after every worker has returned or been abandoned.
//
// Errors: ErrOptionViolation for negative Workers or Timeout. Job failures
// are reported in the outcomes, never as the returned error.
func Run(ctx context.Context, jobs []Job, opts Options) ([]Outcome, error) {
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: workers %d", ErrOptionViolation, opts.Workers)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("%w: timeout %v", ErrOptionViolation, opts.Timeout)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	out := make([]Outcome, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)
	for i, job := range jobs {
		i, job := i, job
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		g.Go(func() error {
			out[i] = runJob(ctx, job, opts)
			return nil
		})
	}
	_ = g.Wait()

	var done, failed, skipped int
	for _, o := range out {
		switch o.Status {
		case StatusDone:
			done++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	opts.Logger.Info("batch finished",
		zap.Int("jobs", len(jobs)), zap.Int("done", done),
		zap.Int("failed", failed), zap.Int("skipped", skipped))
	return out, nil
}

type packed struct {
	res *packer.Result
	err error
}

func runJob(ctx context.Context, job Job, opts Options) Outcome {
	start := time.Now()
	log := opts.Logger.With(zap.String("job", job.ID))
	o := Outcome{ID: job.ID}

	if err := ctx.Err(); err != nil {
		o.Status, o.Err = StatusSkipped, err
		log.Info("job skipped", zap.Error(err))
		return o
	}
	jctx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		jctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	log.Debug("job started")
	ch := make(chan packed, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- packed{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		res, err := packer.Pack(jctx, job.Grid, job.Pack)
		if err == nil && opts.Sink != nil {
			// an abandoned worker must not persist after its deadline
			if err = jctx.Err(); err == nil {
				err = opts.Sink.Write(jctx, job.ID, res.Structure)
			}
		}
		ch <- packed{res: res, err: err}
	}()

	var p packed
	select {
	case p = <-ch:
	case <-jctx.Done():
		// the worker sees the canceled context at its next check and exits
		p.err = jctx.Err()
	}
	o.Elapsed = time.Since(start)

	switch {
	case errors.Is(p.err, context.DeadlineExceeded), errors.Is(p.err, context.Canceled):
		o.Status, o.Err = StatusSkipped, p.err
		log.Warn("job skipped", zap.Duration("elapsed", o.Elapsed), zap.Error(p.err))
	case p.err != nil:
		o.Status, o.Err = StatusFailed, p.err
		log.Error("job failed", zap.Duration("elapsed", o.Elapsed), zap.Error(p.err))
	default:
		o.Status, o.Result = StatusDone, p.res
		log.Info("job done", zap.Duration("elapsed", o.Elapsed), zap.Int("bricks", p.res.Stats.Bricks))
	}
	return o
}
