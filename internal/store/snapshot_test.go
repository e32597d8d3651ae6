package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadLatest(t *testing.T) {
	s := NewSnapshotStore(t.TempDir())

	older := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 8, 17, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Write("bootstrap", older, []byte(`{"v":1}`), false))
	require.NoError(t, s.Write("bootstrap", newer, []byte(`{"v":2}`), false))

	states, err := s.States("bootstrap")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states[0].Before(states[1]))

	latest, err := s.Latest("bootstrap")
	require.NoError(t, err)
	assert.True(t, latest.Equal(newer))

	body, err := s.ReadLatest("bootstrap")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(body))
}

func TestWritePrunesOlderSnapshots(t *testing.T) {
	s := NewSnapshotStore(t.TempDir())

	for day := 1; day <= 3; day++ {
		ts := time.Date(2025, 8, day, 9, 30, 0, 0, time.UTC)
		require.NoError(t, s.Write("fixtures", ts, []byte(`{}`), true))
	}

	states, err := s.States("fixtures")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, 3, states[0].Day())
}

func TestEmptyResource(t *testing.T) {
	s := NewSnapshotStore(t.TempDir())

	states, err := s.States("missing")
	require.NoError(t, err)
	assert.Empty(t, states)

	_, err = s.Latest("missing")
	assert.ErrorIs(t, err, ErrNoSnapshots)

	_, err = s.ReadLatest("missing")
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestPrettyWriteIndentsBody(t *testing.T) {
	s := NewSnapshotStore(t.TempDir())
	ts := time.Date(2025, 8, 20, 18, 0, 0, 0, time.UTC)
	require.NoError(t, s.Write("bootstrap", ts, []byte(`{"a":1,"b":[2,3]}`), false))

	body, err := s.Read("bootstrap", ts)
	require.NoError(t, err)
	assert.Contains(t, string(body), "\n  \"a\": 1")
}

func TestFresh(t *testing.T) {
	now := time.Date(2025, 8, 28, 12, 0, 0, 0, time.UTC)
	assert.True(t, Fresh(now.Add(-time.Hour), 24*time.Hour, now))
	assert.False(t, Fresh(now.Add(-25*time.Hour), 24*time.Hour, now))
}
