package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := &FileState{Path: filepath.Join(t.TempDir(), "state", "progress.json")}

	_, ok, err := s.LoadState(ctx, "position:1")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveState(ctx, "position:1", at))
	require.NoError(t, s.SaveState(ctx, "position:2", at.AddDate(0, 0, 1)))

	reopened := &FileState{Path: s.Path}
	got, ok, err := reopened.LoadState(ctx, "position:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, at, got)

	got, ok, err = reopened.LoadState(ctx, "position:2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, at.AddDate(0, 0, 1), got)
}

func TestFileStateWithoutPath(t *testing.T) {
	s := &FileState{}
	require.NoError(t, s.SaveState(context.Background(), "x", time.Now()))
	_, ok, err := s.LoadState(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, ok)
}
