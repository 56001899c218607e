package dkg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/errs"
)

func TestTransitionLinearProgression(t *testing.T) {
	sequence := []Status{None, InPhase, CommitSuccess, WaitForPostProcess, PostProcessSuccess}
	current := None
	for _, next := range sequence[1:] {
		got, changed, err := Transition(current, next)
		require.NoError(t, err)
		require.True(t, changed)
		require.Equal(t, next, got)
		current = got
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	for _, s := range []Status{None, InPhase, CommitSuccess, WaitForPostProcess, PostProcessSuccess} {
		got, changed, err := Transition(s, s)
		require.NoError(t, err)
		require.False(t, changed)
		require.Equal(t, s, got)
	}
}

func TestTransitionRejectsOutOfOrder(t *testing.T) {
	cases := []struct {
		name     string
		from, to Status
	}{
		{"skip forward", None, CommitSuccess},
		{"skip to end", InPhase, PostProcessSuccess},
		{"backwards", CommitSuccess, InPhase},
		{"reset", PostProcessSuccess, None},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed, err := Transition(tc.from, tc.to)
			require.False(t, changed)
			require.Equal(t, tc.from, got)
			var invalid *errs.ErrInvalidDKGTransition
			require.ErrorAs(t, err, &invalid)
		})
	}
}
