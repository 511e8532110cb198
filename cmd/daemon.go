package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"carebook/internal/daemon"
)

// Daemon command flags.
var (
	daemonStartFlagForeground bool
	daemonLogsFlagTail        int
)

// daemonCmd represents the daemon command.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"d", "bg"},
	Short:   "Manage the background alert daemon",
	Long: `Manage the Carebook background daemon that watches the alert queue
and delivers due reminders and at-time alerts through configured channels.

Examples:
  carebook daemon start
  carebook daemon status
  carebook daemon stop
  carebook daemon logs --tail 20`,
	RunE: runDaemonStatus,
}

// daemonStartCmd starts the daemon.
var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	Long: `Start the Carebook background daemon.

The daemon checks the alert queue once a minute and delivers anything
that has come due.

Examples:
  carebook daemon start           # Start in background
  carebook daemon start -f        # Start in foreground (for debugging)`,
	RunE: runDaemonStart,
}

// daemonRunCmd is the hidden foreground entry used by StartBackground.
var daemonRunCmd = &cobra.Command{
	Use:    "run",
	Hidden: true,
	RunE:   runDaemonRun,
}

// daemonStopCmd stops the daemon.
var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	RunE:  runDaemonStop,
}

// daemonStatusCmd shows daemon status.
var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

// daemonLogsCmd shows daemon logs.
var daemonLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	RunE:  runDaemonLogs,
}

func init() {
	daemonStartCmd.Flags().BoolVarP(&daemonStartFlagForeground, "foreground", "F", false,
		"Run in foreground (don't daemonize)")
	daemonLogsCmd.Flags().IntVarP(&daemonLogsFlagTail, "tail", "n", 20,
		"Number of lines to show")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonRunCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonLogsCmd)

	rootCmd.AddCommand(daemonCmd)
}

// runDaemonStart handles the daemon start command.
func runDaemonStart(cmd *cobra.Command, args []string) error {
	d := daemon.NewDaemon(ctx.DB)

	if ok, err := ctx.Port.RequestPermission(cmd.Context()); err == nil && !ok {
		cli := ctx.CLIFormatter()
		cli.Warning("No delivery channels configured; due alerts will be dropped")
		cli.Println("Add one with: carebook channel add")
	}

	if daemonStartFlagForeground {
		ctx.Formatter.Println("Running daemon in foreground (Ctrl+C to stop)...")
		return d.Run(cmd.Context())
	}

	// Release the badger dir lock so the child can open its own handle
	if err := ctx.DB.Close(); err != nil {
		return err
	}
	ctx.DB = nil

	if err := d.StartBackground(); err != nil {
		if err == daemon.ErrAlreadyRunning {
			return fmt.Errorf("daemon is already running (PID %d)", d.GetStatus().PID)
		}
		return err
	}

	cli := ctx.CLIFormatter()
	cli.Success("Daemon started")
	cli.Printf("  Logs: %s\n", daemon.LogFilePath())
	return nil
}

// runDaemonRun runs the daemon loop in the foreground. It is the target of
// the detached child process spawned by StartBackground.
func runDaemonRun(cmd *cobra.Command, args []string) error {
	d := daemon.NewDaemon(ctx.DB)
	return d.Run(cmd.Context())
}

// runDaemonStop handles the daemon stop command.
func runDaemonStop(cmd *cobra.Command, args []string) error {
	d := daemon.NewDaemon(ctx.DB)

	if err := d.Stop(); err != nil {
		if err == daemon.ErrNotRunning {
			return fmt.Errorf("daemon is not running")
		}
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status": "stopped",
		})
	}

	ctx.CLIFormatter().Success("Daemon stopped")
	return nil
}

// runDaemonStatus handles the daemon status command.
func runDaemonStatus(cmd *cobra.Command, args []string) error {
	d := daemon.NewDaemon(ctx.DB)
	status := d.GetStatus()

	pending, err := ctx.AlertRepo.ListPending()
	if err != nil {
		return err
	}
	due := 0
	now := ctx.Clock.Now()
	for _, a := range pending {
		if a.IsDue(now) {
			due++
		}
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"running":        status.Running,
			"pid":            status.PID,
			"started_at":     status.StartedAt,
			"uptime":         status.Uptime,
			"pending_alerts": len(pending),
			"due_alerts":     due,
		})
	}

	cli := ctx.CLIFormatter()
	if status.Running {
		cli.Success("Daemon is running (PID %d)", status.PID)
		if status.Uptime != "" {
			cli.Printf("  Uptime: %s\n", status.Uptime)
		}
	} else {
		cli.Warning("Daemon is not running")
		cli.Println("Start it with: carebook daemon start")
	}
	cli.Printf("  Pending alerts: %d", len(pending))
	if due > 0 {
		cli.Printf("  (%d due)", due)
	}
	cli.Println("")

	return nil
}

// runDaemonLogs handles the daemon logs command.
func runDaemonLogs(cmd *cobra.Command, args []string) error {
	logPath := daemon.LogFilePath()

	file, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			ctx.Formatter.Println("No daemon logs found.")
			return nil
		}
		return err
	}
	defer file.Close()

	// Read all lines and keep the tail
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	start := 0
	if len(lines) > daemonLogsFlagTail {
		start = len(lines) - daemonLogsFlagTail
	}

	ctx.Formatter.Println(strings.Join(lines[start:], "\n"))
	return nil
}
