package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/jmhodges/clock"

	"carebook/internal/config"
	"carebook/internal/logging"
	"carebook/internal/notify"
	"carebook/internal/scheduler"
	"carebook/internal/storage"
)

// Daemon runs the alert delivery loop in the background.
type Daemon struct {
	pidFile     *PIDFile
	db          *storage.DB
	alertRepo   *storage.AlertRepo
	channelRepo *storage.ChannelRepo
	scheduler   *scheduler.Scheduler
}

// Status represents the daemon status.
type Status struct {
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// NewDaemon creates a new daemon manager.
func NewDaemon(db *storage.DB) *Daemon {
	return &Daemon{
		pidFile:     NewPIDFile(),
		db:          db,
		alertRepo:   storage.NewAlertRepo(db),
		channelRepo: storage.NewChannelRepo(db),
	}
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() *Status {
	status := &Status{}

	pid := d.pidFile.GetRunningPID()
	if pid > 0 {
		status.Running = true
		status.PID = pid
		if started, err := d.pidFile.StartedAt(); err == nil {
			status.StartedAt = started
			status.Uptime = time.Since(started).Round(time.Second).String()
		}
	}

	return status
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	return d.pidFile.IsRunning()
}

// Run starts the daemon in the foreground and blocks until the context is
// cancelled or a termination signal arrives.
func (d *Daemon) Run(ctx context.Context) error {
	if d.IsRunning() {
		return ErrAlreadyRunning
	}

	if err := d.pidFile.Write(); err != nil {
		return err
	}
	defer d.pidFile.Remove()

	dispatcher := notify.NewDispatcher(d.channelRepo)
	checker := scheduler.NewAlertChecker(d.alertRepo, dispatcher, clock.New())
	d.scheduler = scheduler.NewScheduler(checker)

	if err := d.scheduler.Start(); err != nil {
		return err
	}
	defer d.scheduler.Stop()

	// Deliver anything already due instead of waiting for the first tick
	checker.Check()

	logging.Info("daemon started", "pid", os.Getpid())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		logging.Info("daemon stopping", "signal", sig.String())
	}

	return nil
}

// StartBackground re-executes the current binary as a detached daemon.
func (d *Daemon) StartBackground() error {
	if d.IsRunning() {
		return ErrAlreadyRunning
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	logPath := LogFilePath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(exe, "daemon", "run")
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Give the child a moment to write its PID file
	time.Sleep(config.Global.Daemon.StartupWait)

	if !d.IsRunning() {
		return fmt.Errorf("daemon exited immediately; check %s", logPath)
	}

	return nil
}

// Stop signals the running daemon to terminate.
func (d *Daemon) Stop() error {
	pid := d.pidFile.GetRunningPID()
	if pid == 0 {
		return ErrNotRunning
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal daemon: %w", err)
	}

	// Wait for graceful exit before escalating
	deadline := time.Now().Add(config.Global.Daemon.KillTimeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := proc.Kill(); err != nil {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}
	return nil
}

// LogFilePath returns the daemon log file path.
func LogFilePath() string {
	return filepath.Join(xdg.StateHome, AppName, "daemon.log")
}
