package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

func TestNewJob(t *testing.T) {
	j := NewJob("CCO")

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, "CCO", j.Identifier)
	assert.Equal(t, StatusPending, j.Status)
	assert.NotEqual(t, j.ID, NewJob("CCO").ID)
}

func TestJobLifecycle(t *testing.T) {
	j := NewJob("CCO")

	j.markSubmitted()
	assert.Equal(t, StatusSubmitted, j.Status)
	assert.False(t, j.SubmittedAt.IsZero())

	j.markPolling()
	assert.Equal(t, StatusPolling, j.Status)

	j.markComplete()
	assert.Equal(t, StatusComplete, j.Status)
	assert.False(t, j.CompletedAt.IsZero())
	assert.True(t, j.Status.Terminal())
}

func TestJobTerminalStatesAreSticky(t *testing.T) {
	j := NewJob("CCO")
	j.markSubmitted()
	j.markFailed(errors.Network("gone"))
	require.Equal(t, StatusFailed, j.Status)

	j.markComplete()
	assert.Equal(t, StatusFailed, j.Status)
	assert.Error(t, j.Err)
}

func TestJobCannotCompleteFromPending(t *testing.T) {
	j := NewJob("CCO")
	j.markComplete()
	assert.Equal(t, StatusPending, j.Status)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusSubmitted.Terminal())
	assert.False(t, StatusPolling.Terminal())
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
