package structure_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/voxbrick/brick"
	"github.com/katalvlaran/voxbrick/catalog"
	"github.com/katalvlaran/voxbrick/stability"
	"github.com/katalvlaran/voxbrick/structure"
)

func fromTxt(t testing.TB, lines ...string) *structure.Structure {
	t.Helper()
	var text string
	for _, l := range lines {
		text += l + "\n"
	}
	s, err := structure.FromTxt(text)
	require.NoError(t, err)
	return s
}

func parseBrick(t testing.TB, line string) brick.Brick {
	t.Helper()
	b, err := brick.ParseTxt(catalog.Default(), line)
	require.NoError(t, err)
	return b
}

// CodecSuite checks that every encoding round-trips a mixed structure.
type CodecSuite struct {
	suite.Suite
	s *structure.Structure
}

func (cs *CodecSuite) SetupTest() {
	cs.s = fromTxt(cs.T(),
		"2x6x3 (0,0,0)",
		"6x2x3 (0,1,2)",
		"4x4x1 (3,3,5)",
		"1x3x1 (10,2,0)",
		"3x1x3 (10,3,7)",
		"2x2x3 (18,18,17)",
	)
}

func (cs *CodecSuite) TestTxt() {
	back, err := structure.FromTxt(cs.s.Txt())
	cs.Require().NoError(err)
	cs.True(cs.s.Equal(back))
	cs.Equal(cs.s.Txt(), back.Txt(), "idempotent")
	cs.Equal(cs.s.Bricks(), back.Bricks(), "order preserved")
}

func (cs *CodecSuite) TestRecord() {
	back, err := structure.FromRecord(cs.s.Record())
	cs.Require().NoError(err)
	cs.True(cs.s.Equal(back))
	cs.Equal(cs.s.Bricks(), back.Bricks())
}

func (cs *CodecSuite) TestRecordJSON() {
	data, err := cs.s.RecordJSON()
	cs.Require().NoError(err)
	back, err := structure.FromRecordJSON(data)
	cs.Require().NoError(err)
	cs.True(cs.s.Equal(back))

	again, err := back.RecordJSON()
	cs.Require().NoError(err)
	cs.Equal(string(data), string(again), "idempotent")
}

func (cs *CodecSuite) TestRecordCBOR() {
	data, err := cs.s.RecordCBOR()
	cs.Require().NoError(err)
	back, err := structure.FromRecordCBOR(data)
	cs.Require().NoError(err)
	cs.Equal(cs.s.Bricks(), back.Bricks())

	again, err := back.RecordCBOR()
	cs.Require().NoError(err)
	cs.Equal(data, again, "canonical encoding is stable")
}

func (cs *CodecSuite) TestLdr() {
	text, err := cs.s.Ldr()
	cs.Require().NoError(err)
	back, err := structure.FromLdr(text)
	cs.Require().NoError(err)
	cs.Equal(cs.s.Bricks(), back.Bricks())

	again, err := back.Ldr()
	cs.Require().NoError(err)
	cs.Equal(text, again, "idempotent")
}

func (cs *CodecSuite) TestMutualEquality() {
	data, err := cs.s.RecordJSON()
	cs.Require().NoError(err)
	fromJSON, err := structure.FromRecordJSON(data)
	cs.Require().NoError(err)
	ldr, err := cs.s.Ldr()
	cs.Require().NoError(err)
	fromLdr, err := structure.FromLdr(ldr)
	cs.Require().NoError(err)
	fromText, err := structure.FromTxt(cs.s.Txt())
	cs.Require().NoError(err)

	cs.True(fromJSON.Equal(fromLdr))
	cs.True(fromLdr.Equal(fromText))
	cs.Empty(cmp.Diff(fromJSON.Sorted(), fromText.Sorted()))
}

func TestCodecSuite(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func TestTxt_KnownLines(t *testing.T) {
	s := fromTxt(t, "6x2x3 (0,1,2)")
	b := s.Bricks()[0]
	assert.Equal(t, 1, b.ID)
	assert.Equal(t, 1, b.Ori)
	assert.Equal(t, "6x2x3 (0,1,2)\n", s.Txt())
}

func TestLdr_KnownLines(t *testing.T) {
	s := fromTxt(t, "2x6x3 (0,0,0)", "2x6x3 (2,0,0)", "6x2x3 (0,1,2)")
	text, err := s.Ldr()
	require.NoError(t, err)
	want := "1 115 20.0 0 60.0 0 0 1 0 1 0 -1 0 0 2456.DAT\n0 STEP\n" +
		"1 115 60.0 0 60.0 0 0 1 0 1 0 -1 0 0 2456.DAT\n0 STEP\n" +
		"1 115 60.0 -16 40.0 1 0 0 0 1 0 0 0 1 2456.DAT\n0 STEP\n"
	assert.Equal(t, want, text)
}

func TestFromLdr_Lenient(t *testing.T) {
	text := "0 Untitled\n\n" +
		"1 4 20.0 0 60.0 0 0 -1 0 1 0 1 0 0 2456.dat\n" +
		"0 STEP\n"
	s, err := structure.FromLdr(text)
	require.NoError(t, err)
	assert.Equal(t, []brick.Brick{parseBrick(t, "2x6x3 (0,0,0)")}, s.Bricks())
}

func TestRecordJSON_KnownBytes(t *testing.T) {
	s := fromTxt(t, "2x6x3 (0,0,0)", "6x2x3 (0,1,2)")
	data, err := s.RecordJSON()
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"1":{"brick_id":1,"x":0,"y":0,"z":0,"ori":0},"2":{"brick_id":1,"x":0,"y":1,"z":2,"ori":1}}`,
		string(data))
	assert.Equal(t,
		`{"1":{"brick_id":1,"x":0,"y":0,"z":0,"ori":0},"2":{"brick_id":1,"x":0,"y":1,"z":2,"ori":1}}`,
		string(data), "keys in numeric order")
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		decode func() error
		line   int
		field  string
		also   error
	}{
		{"txt malformed", func() error {
			_, err := structure.FromTxt("2x6x3 (0,0,0)\n\n2x6 (0,0,0)\n")
			return err
		}, 3, "", nil},
		{"txt unknown dims", func() error {
			_, err := structure.FromTxt("3x3x3 (0,0,0)\n")
			return err
		}, 1, "", catalog.ErrLookup},
		{"ldr off grid", func() error {
			_, err := structure.FromLdr("1 115 25.0 0 60.0 0 0 1 0 1 0 -1 0 0 2456.DAT\n")
			return err
		}, 1, "x", nil},
		{"ldr unknown part", func() error {
			_, err := structure.FromLdr("0 STEP\n1 115 20.0 0 60.0 0 0 1 0 1 0 -1 0 0 9999.DAT\n")
			return err
		}, 2, "part", catalog.ErrLookup},
		{"ldr rotation", func() error {
			_, err := structure.FromLdr("1 115 20.0 0 60.0 -1 0 0 0 1 0 0 0 1 2456.DAT\n")
			return err
		}, 1, "rotation", nil},
		{"ldr short line", func() error {
			_, err := structure.FromLdr("1 115 20.0 0 60.0\n")
			return err
		}, 1, "", nil},
		{"ldr vertical off grid", func() error {
			_, err := structure.FromLdr("1 115 20.0 -12 60.0 0 0 1 0 1 0 -1 0 0 2456.DAT\n")
			return err
		}, 1, "y", nil},
		{"record gap in keys", func() error {
			_, err := structure.FromRecord(map[string]brick.Record{"1": {BrickID: 1}, "3": {BrickID: 1}})
			return err
		}, 2, "key", nil},
		{"record unknown id", func() error {
			_, err := structure.FromRecord(map[string]brick.Record{"1": {BrickID: 999}})
			return err
		}, 1, "", catalog.ErrLookup},
		{"record bad ori", func() error {
			_, err := structure.FromRecord(map[string]brick.Record{"1": {BrickID: 1, Ori: 2}})
			return err
		}, 1, "", brick.ErrOrientation},
		{"json missing field", func() error {
			_, err := structure.FromRecordJSON([]byte(`{"1":{"brick_id":1,"x":0,"y":0,"z":0}}`))
			return err
		}, 1, "ori", nil},
		{"json unknown field", func() error {
			_, err := structure.FromRecordJSON([]byte(`{"1":{"brick_id":1,"x":0,"y":0,"z":0,"ori":0,"color":4}}`))
			return err
		}, 0, "", nil},
		{"json key zero", func() error {
			_, err := structure.FromRecordJSON([]byte(`{"0":{"brick_id":1,"x":0,"y":0,"z":0,"ori":0}}`))
			return err
		}, 1, "key", nil},
		{"cbor garbage", func() error {
			_, err := structure.FromRecordCBOR([]byte{0xff, 0x00})
			return err
		}, 0, "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.decode()
			require.Error(t, err)
			assert.ErrorIs(t, err, structure.ErrFormat)
			var fe *structure.FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.line, fe.Line)
			assert.Equal(t, tc.field, fe.Field)
			if tc.also != nil {
				assert.ErrorIs(t, err, tc.also)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	_, err := structure.New(nil, structure.WithWorldDim(brick.Dims{X: 0, Y: 1, Z: 1}))
	assert.ErrorIs(t, err, structure.ErrOptionViolation)
	_, err = structure.FromTxt("", structure.WithCatalog(nil))
	assert.ErrorIs(t, err, structure.ErrOptionViolation)
	_, err = structure.FromLdr("", structure.WithStabilityThreshold(1.5))
	assert.ErrorIs(t, err, structure.ErrOptionViolation)

	s, err := structure.New(nil, structure.WithWorldDim(brick.Dims{X: 4, Y: 5, Z: 6}))
	require.NoError(t, err)
	assert.Equal(t, brick.Dims{X: 4, Y: 5, Z: 6}, s.Dims())
	assert.Same(t, catalog.Default(), s.Catalog())
	assert.Zero(t, s.Len())
}

func TestCollisions(t *testing.T) {
	cases := []struct {
		name    string
		lines   []string
		collide bool
	}{
		{"adjacent", []string{"2x6x3 (0,0,0)", "2x6x3 (2,0,0)"}, false},
		{"shifted into", []string{"2x6x3 (0,0,0)", "2x6x3 (1,0,0)"}, true},
		{"stacked", []string{"1x1x3 (0,0,0)", "1x1x3 (0,0,3)"}, false},
		{"plate inside", []string{"1x1x3 (0,0,0)", "1x1x1 (0,0,1)"}, true},
		{"partial vertical", []string{"1x1x3 (0,0,0)", "1x1x3 (0,0,2)"}, true},
		{"rotated cross", []string{"2x6x3 (2,0,0)", "6x2x3 (0,2,0)"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := fromTxt(t, tc.lines...)
			assert.Equal(t, tc.collide, s.HasCollisions())
			if tc.collide {
				assert.Equal(t, [][2]int{{0, 1}}, s.Collisions())
			}
		})
	}
}

func TestCollisions_EmptyExtent(t *testing.T) {
	// a zero-size placement stays out of the spatial index
	s := fromTxt(t, "2x6x3 (0,0,0)", "2x6x3 (2,0,0)")
	s.Add(brick.Brick{X: 1, Y: 1, Z: 3})

	assert.Empty(t, s.Collisions())
	assert.Equal(t, []int{2}, s.FloatingBricks())
	assert.False(t, s.BrickFloats(parseBrick(t, "2x6x3 (0,0,3)")))
}

func TestBrickInBounds(t *testing.T) {
	s := fromTxt(t)
	assert.True(t, s.BrickInBounds(parseBrick(t, "2x6x3 (18,0,0)")))
	assert.False(t, s.BrickInBounds(parseBrick(t, "2x6x3 (19,0,0)")))
	assert.False(t, s.BrickInBounds(parseBrick(t, "2x6x3 (0,15,0)")))
	assert.False(t, s.BrickInBounds(parseBrick(t, "2x6x3 (0,0,18)")))
	assert.False(t, s.BrickInBounds(parseBrick(t, "2x6x3 (-1,0,0)")))
}

func TestValidate(t *testing.T) {
	ok := fromTxt(t, "2x6x3 (0,0,0)", "2x6x3 (2,0,0)")
	assert.NoError(t, ok.Validate())

	bad := fromTxt(t, "2x6x3 (0,0,0)", "2x6x3 (1,0,0)", "2x6x3 (19,0,0)")
	err := bad.Validate()
	require.ErrorIs(t, err, structure.ErrGeometry)
	var ge *structure.GeometryError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, []int{2}, ge.OutOfBounds)
	assert.Equal(t, [][2]int{{0, 1}}, ge.Collisions)
}

func TestFloating(t *testing.T) {
	cases := []struct {
		name     string
		lines    []string
		floating []int
	}{
		{"on the ground", []string{"2x6x3 (0,0,0)"}, nil},
		{"nothing below", []string{"2x6x3 (0,0,1)"}, []int{0}},
		{"resting on top", []string{"2x6x3 (0,0,0)", "6x2x3 (0,0,3)"}, nil},
		{"side contact only", []string{"2x6x3 (0,0,0)", "2x6x3 (2,0,1)"}, []int{1}},
		{"hanging from above", []string{"4x4x1 (0,0,5)", "1x1x1 (1,1,4)"}, nil},
		{"gap below", []string{"1x1x3 (0,0,0)", "4x1x1 (0,0,4)"}, []int{1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := fromTxt(t, tc.lines...)
			assert.Equal(t, tc.floating, s.FloatingBricks())
			assert.Equal(t, len(tc.floating) > 0, s.HasFloatingBricks())
		})
	}
}

func TestFloating_AfterAdd(t *testing.T) {
	s := fromTxt(t, "2x6x3 (0,0,3)")
	require.True(t, s.HasFloatingBricks())
	s.Add(parseBrick(t, "2x6x3 (0,0,0)"))
	assert.False(t, s.HasFloatingBricks(), "Add invalidates the spatial index")
}

func TestStability(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		lines  []string
		stable bool
	}{
		{"arch", []string{"1x1x3 (0,0,0)", "1x1x3 (3,0,0)", "4x1x1 (0,0,3)"}, true},
		{"beam with a gap", []string{"1x1x3 (0,0,0)", "4x1x1 (0,0,4)"}, false},
		{"side by side", []string{"2x6x3 (0,0,0)", "2x6x3 (2,0,0)"}, true},
		{"raised neighbour", []string{"2x6x3 (0,0,0)", "2x6x3 (2,0,1)"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := fromTxt(t, tc.lines...)
			stable, err := s.IsStable(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.stable, stable)
		})
	}
}

func TestStabilityScore(t *testing.T) {
	s := fromTxt(t, "1x1x3 (0,0,0)", "1x1x3 (3,0,0)", "4x1x1 (0,0,3)")
	score, err := s.StabilityScore(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.002, score, 1e-5)
}

func TestIsStable_SolverFallback(t *testing.T) {
	s, err := structure.FromTxt("2x6x3 (0,0,0)\n", structure.WithSolver(nil))
	require.NoError(t, err)

	_, err = s.StabilityScore(context.Background())
	require.ErrorIs(t, err, stability.ErrSolverUnavailable)

	stable, err := s.IsStable(context.Background())
	assert.ErrorIs(t, err, stability.ErrSolverUnavailable)
	assert.True(t, stable, "falls back to the floating-bricks check")
}

func TestIsStable_Threshold(t *testing.T) {
	fixed := stability.SolverFunc(func(context.Context, stability.Model) (float64, error) { return 0.3, nil })
	s, err := structure.FromTxt("2x6x3 (0,0,0)\n",
		structure.WithSolver(fixed), structure.WithStabilityThreshold(0.25))
	require.NoError(t, err)
	stable, err := s.IsStable(context.Background())
	require.NoError(t, err)
	assert.False(t, stable)
}

func TestEqual(t *testing.T) {
	a := fromTxt(t, "2x6x3 (0,0,0)", "1x1x1 (5,5,5)")
	b := fromTxt(t, "1x1x1 (5,5,5)", "2x6x3 (0,0,0)")
	c := fromTxt(t, "1x1x1 (5,5,5)", "6x2x3 (0,0,0)")

	assert.True(t, a.Equal(b), "order does not matter")
	assert.False(t, a.Equal(c), "orientation matters")
	assert.NotEmpty(t, cmp.Diff(a.Sorted(), c.Sorted()))
	assert.False(t, a.Equal(nil))
}

func TestNew_CopiesInput(t *testing.T) {
	in := []brick.Brick{parseBrick(t, "2x6x3 (0,0,0)")}
	s, err := structure.New(in)
	require.NoError(t, err)
	in[0].X = 7
	assert.Equal(t, 0, s.Bricks()[0].X)
}
