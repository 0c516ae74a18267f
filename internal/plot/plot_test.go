package plot

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestSample_2D(t *testing.T) {
	s := NewSampler(0, nil)
	data, err := s.Sample(context.Background(), Request{
		Expr:   "1/x",
		Domain: Domain{XMin: ptr(-1), XMax: ptr(1), NumPoints: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, Type2D, data.Type)
	assert.Equal(t, []any{-1.0, 0.0, 1.0}, data.X)
	assert.Equal(t, []any{-1.0, nil, 1.0}, data.Y)
	assert.Equal(t, 3, data.Domain.NumPoints)
}

func TestSample_Defaults(t *testing.T) {
	s := NewSampler(500, nil)
	data, err := s.Sample(context.Background(), Request{Expr: "x^2"})
	require.NoError(t, err)

	require.Len(t, data.X, 500)
	assert.Equal(t, -10.0, data.X[0])
	assert.Equal(t, 10.0, data.X[499])
	assert.Equal(t, 100.0, data.Y[0])
	assert.Equal(t, -10.0, *data.Domain.XMin)
}

func TestSample_Parametric(t *testing.T) {
	s := NewSampler(0, nil)
	data, err := s.Sample(context.Background(), Request{
		Expr:   "cos(t), sin(t)",
		Type:   TypeParametric,
		Domain: Domain{NumPoints: 5},
	})
	require.NoError(t, err)

	require.Len(t, data.T, 5)
	assert.InDelta(t, 2*math.Pi, data.T[4], 1e-12)
	for i := range data.T {
		x, y := data.X[i].(float64), data.Y[i].(float64)
		assert.InDelta(t, 1, x*x+y*y, 1e-12)
	}

	// commas inside calls do not split
	data, err = s.Sample(context.Background(), Request{Expr: "pow(t, 2), t", Type: TypeParametric, Domain: Domain{NumPoints: 2}})
	require.NoError(t, err)
	assert.InDelta(t, 4*math.Pi*math.Pi, data.X[1], 1e-9)

	_, err = s.Sample(context.Background(), Request{Expr: "cos(t)", Type: TypeParametric})
	assert.ErrorIs(t, err, ErrInvalidPlot)
}

func TestSample_Polar(t *testing.T) {
	s := NewSampler(0, nil)
	data, err := s.Sample(context.Background(), Request{
		Expr:   "2",
		Type:   TypePolar,
		Domain: Domain{ThetaMin: ptr(0), ThetaMax: ptr(math.Pi / 2), NumPoints: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{2.0, 2.0}, data.R)
	assert.InDelta(t, 2, data.X[0], 1e-12)
	assert.InDelta(t, 0, data.Y[0], 1e-12)
	assert.InDelta(t, 0, data.X[1], 1e-12)
	assert.InDelta(t, 2, data.Y[1], 1e-12)

	data, err = s.Sample(context.Background(), Request{Expr: "sqrt(cos(theta))", Type: TypePolar, Domain: Domain{ThetaMin: ptr(math.Pi), ThetaMax: ptr(math.Pi), NumPoints: 1}})
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, data.R)
	assert.Equal(t, []any{nil}, data.X)
}

func TestSample_3D(t *testing.T) {
	s := NewSampler(0, nil)
	data, err := s.Sample(context.Background(), Request{
		Expr:   "x + 10*y",
		Type:   Type3D,
		Domain: Domain{XMin: ptr(0), XMax: ptr(1), YMin: ptr(0), YMax: ptr(2), NumPoints: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{0.0, 0.5, 1.0}, data.X)
	assert.Equal(t, []any{0.0, 1.0, 2.0}, data.Y)
	require.Len(t, data.Z, 3)
	assert.Equal(t, []any{10.0, 10.5, 11.0}, data.Z[1])
}

func TestSample_Errors(t *testing.T) {
	s := NewSampler(0, nil)
	ctx := context.Background()

	_, err := s.Sample(ctx, Request{Expr: ""})
	assert.ErrorIs(t, err, ErrInvalidPlot)

	_, err = s.Sample(ctx, Request{Expr: "x", Type: "contour"})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.ErrorIs(t, err, ErrInvalidPlot)

	// y is not bound in a 2d plot
	_, err = s.Sample(ctx, Request{Expr: "x + y"})
	assert.ErrorIs(t, err, ErrInvalidPlot)

	_, err = s.Sample(ctx, Request{Expr: "sin(x"})
	assert.ErrorIs(t, err, ErrInvalidPlot)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Sample(cancelled, Request{Expr: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitTopLevel(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitTopLevel("a, b"))
	assert.Equal(t, []string{"log(x, 2)", "[1, 2]"}, splitTopLevel("log(x, 2), [1, 2]"))
	assert.Equal(t, []string{"x"}, splitTopLevel("x"))
}
