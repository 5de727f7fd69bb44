package exportjob

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_EvictsOnSchedule(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(time.Hour, WithClock(clock.Now))

	file := filepath.Join(t.TempDir(), "site.zip")
	require.NoError(t, os.WriteFile(file, []byte("zip"), 0o600))
	reg.SetCompleted("site.zip", file)
	clock.Advance(2 * time.Hour)

	sw, err := NewSweeper(reg, 20*time.Millisecond)
	require.NoError(t, err)
	sw.Start()
	defer func() { require.NoError(t, sw.Stop()) }()

	assert.Eventually(t, func() bool {
		_, ok := reg.Get("site.zip")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoFileExists(t, file)
}

func TestNewSweeper_RejectsNonPositiveInterval(t *testing.T) {
	_, err := NewSweeper(NewRegistry(time.Hour), 0)
	require.Error(t, err)
}
