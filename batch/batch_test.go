package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/katalvlaran/voxbrick/batch"
	"github.com/katalvlaran/voxbrick/brick"
	"github.com/katalvlaran/voxbrick/catalog"
	"github.com/katalvlaran/voxbrick/packer"
	"github.com/katalvlaran/voxbrick/stability"
	"github.com/katalvlaran/voxbrick/structure"
	"github.com/katalvlaran/voxbrick/voxel"
)

func solid(t *testing.T, d brick.Dims) *voxel.Grid {
	t.Helper()
	g, err := voxel.New(d)
	require.NoError(t, err)
	g.Fill(brick.Box{Max: [3]int{d.X, d.Y, d.Z}})
	return g
}

func okJob(t *testing.T, id string) batch.Job {
	return batch.Job{ID: id, Grid: solid(t, brick.Dims{X: 2, Y: 6, Z: 3}), Pack: packer.DefaultOptions()}
}

func failingJob(t *testing.T, id string) batch.Job {
	cat, err := catalog.Load(strings.NewReader(`0: {length: 2, width: 2, height: 3, part: "3003"}`))
	require.NoError(t, err)
	opts := packer.DefaultOptions()
	opts.Catalog = cat
	return batch.Job{ID: id, Grid: solid(t, brick.Dims{X: 3, Y: 2, Z: 3}), Pack: opts}
}

func blockingJob(t *testing.T, id string) batch.Job {
	opts := packer.DefaultOptions()
	opts.Solver = stability.SolverFunc(func(ctx context.Context, _ stability.Model) (float64, error) {
		<-ctx.Done()
		return 1, ctx.Err()
	})
	return batch.Job{ID: id, Grid: solid(t, brick.Cube(2)), Pack: opts}
}

func TestRun_IsolatesFailures(t *testing.T) {
	jobs := []batch.Job{okJob(t, "a"), failingJob(t, "b"), okJob(t, "c"), blockingJob(t, "d")}
	opts := batch.DefaultOptions()
	opts.Workers = 2
	opts.Timeout = 50 * time.Millisecond

	out, err := batch.Run(context.Background(), jobs, opts)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, batch.StatusDone, out[0].Status)
	assert.Equal(t, "2x6x3 (0,0,0)\n", out[0].Result.Structure.Txt())

	assert.Equal(t, batch.StatusFailed, out[1].Status)
	assert.ErrorIs(t, out[1].Err, packer.ErrUncoverableRegion)
	assert.Nil(t, out[1].Result)

	assert.Equal(t, batch.StatusDone, out[2].Status)

	assert.Equal(t, batch.StatusSkipped, out[3].Status)
	assert.ErrorIs(t, out[3].Err, context.DeadlineExceeded)

	for i, o := range out {
		assert.Equal(t, jobs[i].ID, o.ID, "outcomes keep job order")
	}
}

func TestRun_AssignsIDs(t *testing.T) {
	out, err := batch.Run(context.Background(), []batch.Job{okJob(t, ""), okJob(t, "")}, batch.Options{})
	require.NoError(t, err)
	for _, o := range out {
		_, perr := uuid.Parse(o.ID)
		assert.NoError(t, perr, o.ID)
	}
	assert.NotEqual(t, out[0].ID, out[1].ID)
}

func TestRun_CanceledBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := batch.Run(ctx, []batch.Job{okJob(t, "a")}, batch.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, batch.StatusSkipped, out[0].Status)
	assert.ErrorIs(t, out[0].Err, context.Canceled)
}

func TestRun_Panic(t *testing.T) {
	job := okJob(t, "p")
	job.Pack.Solver = stability.SolverFunc(func(context.Context, stability.Model) (float64, error) {
		panic("solver exploded")
	})
	out, err := batch.Run(context.Background(), []batch.Job{job, okJob(t, "q")}, batch.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, batch.StatusFailed, out[0].Status)
	assert.ErrorIs(t, out[0].Err, batch.ErrPanic)
	assert.Contains(t, out[0].Err.Error(), "solver exploded")
	assert.Equal(t, batch.StatusDone, out[1].Status)
}

func TestRun_OptionErrors(t *testing.T) {
	_, err := batch.Run(context.Background(), nil, batch.Options{Workers: -1})
	assert.ErrorIs(t, err, batch.ErrOptionViolation)
	_, err = batch.Run(context.Background(), nil, batch.Options{Timeout: -time.Second})
	assert.ErrorIs(t, err, batch.ErrOptionViolation)
}

func TestRun_DirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "res_20")
	opts := batch.DefaultOptions()
	opts.Sink = batch.DirSink{Dir: dir}

	out, err := batch.Run(context.Background(), []batch.Job{okJob(t, "bunny")}, opts)
	require.NoError(t, err)
	require.Equal(t, batch.StatusDone, out[0].Status)

	txt, err := os.ReadFile(filepath.Join(dir, "bunny.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2x6x3 (0,0,0)\n", string(txt))

	ldr, err := os.ReadFile(filepath.Join(dir, "bunny.ldr"))
	require.NoError(t, err)
	back, err := structure.FromLdr(string(ldr))
	require.NoError(t, err)
	assert.True(t, back.Equal(out[0].Result.Structure))
}

func TestRun_SinkFailure(t *testing.T) {
	boom := errors.New("disk full")
	opts := batch.DefaultOptions()
	opts.Sink = batch.SinkFunc(func(context.Context, string, *structure.Structure) error { return boom })

	out, err := batch.Run(context.Background(), []batch.Job{okJob(t, "a")}, opts)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusFailed, out[0].Status)
	assert.ErrorIs(t, out[0].Err, boom)
}

func TestRun_NoSinkWriteAfterTimeout(t *testing.T) {
	finished := make(chan struct{})
	job := okJob(t, "slow")
	job.Grid = solid(t, brick.Cube(2))
	job.Pack.Solver = stability.SolverFunc(func(context.Context, stability.Model) (float64, error) {
		defer close(finished)
		time.Sleep(100 * time.Millisecond)
		return 0, nil
	})

	var calls atomic.Int32
	opts := batch.DefaultOptions()
	opts.Timeout = 20 * time.Millisecond
	opts.Sink = batch.SinkFunc(func(context.Context, string, *structure.Structure) error {
		calls.Add(1)
		return nil
	})

	out, err := batch.Run(context.Background(), []batch.Job{job}, opts)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusSkipped, out[0].Status)
	assert.ErrorIs(t, out[0].Err, context.DeadlineExceeded)

	<-finished
	assert.Never(t, func() bool { return calls.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond,
		"the abandoned worker persisted its structure")
}

func TestDirSink_Canceled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := fromTxtStructure(t, "2x6x3 (0,0,0)\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := batch.DirSink{Dir: dir}.Write(ctx, "late", s)
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "nothing is written after cancellation")
}

func fromTxtStructure(t *testing.T, text string) *structure.Structure {
	t.Helper()
	s, err := structure.FromTxt(text)
	require.NoError(t, err)
	return s
}

func TestRun_Logging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	opts := batch.DefaultOptions()
	opts.Logger = zap.New(core)
	_, err := batch.Run(context.Background(), []batch.Job{okJob(t, "a"), failingJob(t, "b")}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("job done").Len())
	assert.Equal(t, 1, logs.FilterMessage("job failed").Len())
	summary := logs.FilterMessage("batch finished").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(1), summary[0].ContextMap()["failed"])
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "done", batch.StatusDone.String())
	assert.Equal(t, "failed", batch.StatusFailed.String())
	assert.Equal(t, "skipped", batch.StatusSkipped.String())
	assert.Equal(t, "Status(9)", batch.Status(9).String())
}
