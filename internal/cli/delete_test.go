package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smoketrack/internal/storage"
)

func TestDeleteCommand_RemovesEvent(t *testing.T) {
	tr, cleanup := testTracker(t)
	defer cleanup()

	id, err := tr.LogEvent(context.Background(), storage.EventFields{})
	require.NoError(t, err)

	cmd := &DeleteCommand{ID: id, globals: &GlobalFlags{}}
	out := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithTracker(tr))
	})
	assert.Contains(t, out, "Deleted event")

	stats, err := tr.DayStatistics(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalCount)
}

func TestDeleteCommand_MissingID(t *testing.T) {
	tr, cleanup := testTracker(t)
	defer cleanup()

	cmd := &DeleteCommand{ID: 42, globals: &GlobalFlags{}}
	err := cmd.executeWithTracker(tr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no event with id 42")
}
