// Package daemon provides background process management for Carebook.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
)

const (
	// AppName is the application name used for runtime directories.
	AppName = "carebook"
	// PIDFileName is the PID file name.
	PIDFileName = "carebook.pid"
)

// Daemon lifecycle errors.
var (
	ErrAlreadyRunning = errors.New("daemon is already running")
	ErrNotRunning     = errors.New("daemon is not running")
)

// PIDFile manages the daemon PID file.
type PIDFile struct {
	path string
}

// NewPIDFile creates a new PID file manager.
func NewPIDFile() *PIDFile {
	return &PIDFile{
		path: GetPIDFilePath(),
	}
}

// GetPIDFilePath returns the path to the PID file.
func GetPIDFilePath() string {
	// XDG state dir: user-specific and survives reboots, unlike runtime dir
	return filepath.Join(xdg.StateHome, AppName, PIDFileName)
}

// Write writes the current process PID to the file.
func (p *PIDFile) Write() error {
	return p.WritePID(os.Getpid())
}

// WritePID writes a specific PID to the file.
func (p *PIDFile) WritePID(pid int) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}

	data := []byte(strconv.Itoa(pid))
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	return nil
}

// Read reads the PID from the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file contents: %w", err)
	}

	return pid, nil
}

// StartedAt returns the PID file's modification time. The file is written
// once when the daemon loop starts, so this doubles as the start time.
func (p *PIDFile) StartedAt() (time.Time, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Remove deletes the PID file.
func (p *PIDFile) Remove() error {
	err := os.Remove(p.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// GetRunningPID returns the PID of the running daemon, or 0 if none.
func (p *PIDFile) GetRunningPID() int {
	pid, err := p.Read()
	if err != nil {
		return 0
	}

	if !processAlive(pid) {
		// Stale PID file from a crashed daemon
		_ = p.Remove()
		return 0
	}

	return pid
}

// IsRunning returns true if the daemon process is alive.
func (p *PIDFile) IsRunning() bool {
	return p.GetRunningPID() > 0
}

// processAlive checks whether a process with the given PID exists.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
