package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPIDFile(t *testing.T) *PIDFile {
	t.Helper()
	return &PIDFile{path: filepath.Join(t.TempDir(), "test.pid")}
}

func TestPIDFileWriteRead(t *testing.T) {
	p := testPIDFile(t)

	require.NoError(t, p.WritePID(12345))

	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, 12345, pid)
}

func TestPIDFileReadMissing(t *testing.T) {
	p := testPIDFile(t)

	_, err := p.Read()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestPIDFileReadGarbage(t *testing.T) {
	p := testPIDFile(t)

	require.NoError(t, os.WriteFile(p.path, []byte("not a pid"), 0644))

	_, err := p.Read()
	assert.Error(t, err)
}

func TestPIDFileRemove(t *testing.T) {
	p := testPIDFile(t)

	require.NoError(t, p.WritePID(os.Getpid()))
	require.NoError(t, p.Remove())

	// Removing again is not an error
	assert.NoError(t, p.Remove())
}

func TestGetRunningPID(t *testing.T) {
	t.Run("own_process", func(t *testing.T) {
		p := testPIDFile(t)
		require.NoError(t, p.Write())

		assert.Equal(t, os.Getpid(), p.GetRunningPID())
		assert.True(t, p.IsRunning())
	})

	t.Run("stale_pid_cleaned_up", func(t *testing.T) {
		p := testPIDFile(t)
		// PIDs near max are vanishingly unlikely to be alive
		require.NoError(t, p.WritePID(4194300))

		assert.Equal(t, 0, p.GetRunningPID())
		assert.False(t, p.IsRunning())

		// The stale file was removed
		_, err := os.Stat(p.path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("no_file", func(t *testing.T) {
		p := testPIDFile(t)
		assert.Equal(t, 0, p.GetRunningPID())
	})
}

func TestPIDFileStartedAt(t *testing.T) {
	p := testPIDFile(t)

	_, err := p.StartedAt()
	assert.Error(t, err)

	before := time.Now().Add(-time.Second)
	require.NoError(t, p.Write())

	started, err := p.StartedAt()
	require.NoError(t, err)
	assert.True(t, started.After(before))
	assert.True(t, started.Before(time.Now().Add(time.Second)))
}

func TestGetStatusReportsUptime(t *testing.T) {
	d := &Daemon{pidFile: testPIDFile(t)}

	status := d.GetStatus()
	assert.False(t, status.Running)
	assert.True(t, status.StartedAt.IsZero())
	assert.Empty(t, status.Uptime)

	require.NoError(t, d.pidFile.Write())

	status = d.GetStatus()
	assert.True(t, status.Running)
	assert.Equal(t, os.Getpid(), status.PID)
	assert.False(t, status.StartedAt.IsZero())
	assert.NotEmpty(t, status.Uptime)
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
	assert.False(t, processAlive(0))
	assert.False(t, processAlive(-1))
}

func TestGetPIDFilePath(t *testing.T) {
	path := GetPIDFilePath()
	assert.Contains(t, path, AppName)
	assert.Contains(t, path, PIDFileName)
}

func TestLogFilePath(t *testing.T) {
	assert.Contains(t, LogFilePath(), "daemon.log")
}
