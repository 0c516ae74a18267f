package cas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandContext(t *testing.T) {
	ctx := context.Background()

	out, err := ExpandContext(ctx, mustParse(t, "(x + 1)^2"))
	require.NoError(t, err)
	assert.Equal(t, "x^2 + 2*x + 1", out.String())

	_, err = ExpandContext(ctx, mustParse(t, "(x + y)^200"))
	assert.ErrorIs(t, err, ErrTooLarge)

	// Expand keeps the unexpanded power for internal callers
	assert.Equal(t, "(x + y)^200", Expand(mustParse(t, "(x + y)^200")).String())
}

func TestExpandContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExpandContext(ctx, mustParse(t, "(x + 1)*(x - 1)"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SolveContext(ctx, mustParse(t, "x*(x + 1) - 2"), "x")
	assert.ErrorIs(t, err, context.Canceled)

	sols, err := SolveContext(context.Background(), mustParse(t, "x^2 - 4"), "x")
	require.NoError(t, err)
	require.Len(t, sols, 2)
	assert.Equal(t, "-2", sols[0].String())
	assert.Equal(t, "2", sols[1].String())
}
