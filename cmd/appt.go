package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"carebook/internal/book"
	"carebook/internal/model"
	"carebook/internal/output"
	"carebook/internal/parser"
	"carebook/internal/runtime"
)

// Appt command flags.
var (
	apptDeleteForce bool
	apptAlertsAll   bool
)

// apptCmd represents the appt command.
var apptCmd = &cobra.Command{
	Use:     "appt",
	Aliases: []string{"a", "appointment"},
	Short:   "Manage appointments",
	Long: `Create and manage appointments with natural language dates.

Each saved appointment schedules up to two alerts: a reminder five minutes
before the appointment, and an at-time alert when it starts. If the reminder
window has already passed, only the at-time alert is scheduled and a notice
is shown.

Date formats:
  - Relative: +5m, +1h, +2d, +1w
  - Natural language: "friday 5pm", "tomorrow 2pm", "next monday 10am"
  - Date/time: "2026-09-15 14:00"`,
	RunE: runApptList,
}

// apptAddCmd creates an appointment.
var apptAddCmd = &cobra.Command{
	Use:   "add TITLE DATE...",
	Short: "Add an appointment",
	Long: `Add an appointment and schedule its alerts.

Examples:
  carebook appt add "Dentist" tomorrow 2pm
  carebook appt add "Blood test" 2026-09-15 08:30
  carebook appt add "Physio" +45m`,
	Args: cobra.MinimumNArgs(2),
	RunE: runApptAdd,
}

// apptEditCmd edits an appointment.
var apptEditCmd = &cobra.Command{
	Use:   "edit ID TITLE DATE...",
	Short: "Edit an appointment",
	Long: `Replace the title and date of an existing appointment, keeping its ID.
Previously scheduled alerts are cancelled and new ones scheduled from the
updated date.

Examples:
  carebook appt edit 3f9a2c "Dentist Checkup" friday 9am`,
	Args: cobra.MinimumNArgs(3),
	RunE: runApptEdit,
}

// apptListCmd lists appointments.
var apptListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List appointments",
	RunE:    runApptList,
}

// apptDeleteCmd deletes an appointment.
var apptDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm", "remove"},
	Short:   "Delete an appointment",
	Long:    `Delete an appointment and cancel its scheduled alerts.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runApptDelete,
}

// apptAlertsCmd lists scheduled alerts.
var apptAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List scheduled alerts",
	Long:  `List the pending alert queue. Use --all to include delivered alerts.`,
	RunE:  runApptAlerts,
}

// apptAckCmd acknowledges a delivered alert.
var apptAckCmd = &cobra.Command{
	Use:   "ack HANDLE",
	Short: "Acknowledge a delivered alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runApptAck,
}

func init() {
	apptDeleteCmd.Flags().BoolVar(&apptDeleteForce, "force", false,
		"Skip confirmation")
	apptAlertsCmd.Flags().BoolVarP(&apptAlertsAll, "all", "a", false,
		"Include delivered alerts")

	apptEditCmd.ValidArgsFunction = completeApptArgs
	apptDeleteCmd.ValidArgsFunction = completeApptArgs

	apptCmd.AddCommand(apptAddCmd)
	apptCmd.AddCommand(apptEditCmd)
	apptCmd.AddCommand(apptListCmd)
	apptCmd.AddCommand(apptDeleteCmd)
	apptCmd.AddCommand(apptAlertsCmd)
	apptCmd.AddCommand(apptAckCmd)

	rootCmd.AddCommand(apptCmd)
}

// completeApptArgs provides completion for appointment IDs.
func completeApptArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	if ctx == nil {
		opts := runtime.DefaultOptions()
		var err error
		ctx, err = runtime.New(opts)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer ctx.Close()
	}

	appts, err := ctx.Book.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var suggestions []string
	for _, a := range appts {
		shortID := a.ShortID()
		if strings.HasPrefix(shortID, toComplete) {
			suggestions = append(suggestions, fmt.Sprintf("%s\t%s", shortID, a.Title))
		}
	}

	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

// runApptAdd handles creating a new appointment.
func runApptAdd(cmd *cobra.Command, args []string) error {
	title := args[0]

	when := parser.ParseWhenArgs(args[1:], ctx.Clock.Now())
	if when.Error != nil {
		return fmt.Errorf("could not parse date: %w", when.Error)
	}

	result, err := ctx.Book.Create(cmd.Context(), title, when.Time)
	if err != nil {
		return err
	}

	return printSaveResult(result, "created")
}

// runApptEdit handles editing an appointment.
func runApptEdit(cmd *cobra.Command, args []string) error {
	appt, err := ctx.Book.GetByShortID(args[0])
	if err != nil {
		return err
	}

	title := args[1]
	when := parser.ParseWhenArgs(args[2:], ctx.Clock.Now())
	if when.Error != nil {
		return fmt.Errorf("could not parse date: %w", when.Error)
	}

	result, err := ctx.Book.Edit(cmd.Context(), appt.ID, title, when.Time)
	if err != nil {
		return err
	}

	return printSaveResult(result, "updated")
}

// printSaveResult renders a create/edit outcome with its notice and warnings.
func printSaveResult(result *book.SaveResult, verb string) error {
	if ctx.IsJSON() {
		handles := make([]string, len(result.Handles))
		for i, h := range result.Handles {
			handles[i] = string(h)
		}
		return ctx.Formatter.PrintJSON(output.SaveResponse{
			Status:      verb,
			Appointment: output.NewAppointmentOutput(result.Appointment),
			Handles:     handles,
			Notice:      result.Notice,
			Warnings:    result.Warnings,
		})
	}

	cli := ctx.CLIFormatter()
	appt := result.Appointment
	cli.Success("%s %q (%s)", strings.ToUpper(verb[:1])+verb[1:], appt.Title, appt.ShortID())
	cli.Printf("  %s\n", parser.FormatWhen(appt.Date, ctx.Clock.Now()))

	if result.Notice != "" {
		cli.Warning("%s", result.Notice)
	}
	for _, w := range result.Warnings {
		cli.Warning("%s", w)
	}

	return nil
}

// runApptList shows the appointment list.
func runApptList(cmd *cobra.Command, args []string) error {
	appts, err := ctx.Book.List()
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		outs := make([]*output.AppointmentOutput, len(appts))
		for i, a := range appts {
			outs[i] = output.NewAppointmentOutput(a)
		}
		return ctx.Formatter.PrintJSON(output.ListResponse{
			Appointments: outs,
			TotalCount:   len(outs),
		})
	}

	ctx.CLIFormatter().PrintAppointmentList(appts)
	return nil
}

// runApptDelete handles deleting an appointment.
func runApptDelete(cmd *cobra.Command, args []string) error {
	// An unmatched short ID at the CLI is almost certainly a typo
	appt, err := ctx.Book.GetByShortID(args[0])
	if err != nil {
		return err
	}

	if !apptDeleteForce && !ctx.IsJSON() {
		ctx.Formatter.Printf("Delete %q (%s)? [y/N] ", appt.Title, appt.ShortID())
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			ctx.Formatter.Println("Cancelled.")
			return nil
		}
	}

	result, err := ctx.Book.Delete(cmd.Context(), appt.ID)
	if err != nil {
		return err
	}

	cli := ctx.CLIFormatter()
	for _, w := range result.Warnings {
		cli.Warning("%s", w)
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status": "deleted",
			"id":     appt.ID,
		})
	}

	cli.Success("Deleted %q", appt.Title)
	return nil
}

// runApptAlerts shows the pending alert queue.
func runApptAlerts(cmd *cobra.Command, args []string) error {
	var (
		alerts []*model.PendingAlert
		err    error
	)
	if apptAlertsAll {
		alerts, err = ctx.AlertRepo.List()
	} else {
		alerts, err = ctx.AlertRepo.ListPending()
	}
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		outs := make([]*output.AlertOutput, len(alerts))
		for i, a := range alerts {
			outs[i] = output.NewAlertOutput(a)
		}
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"alerts":      outs,
			"total_count": len(outs),
		})
	}

	ctx.CLIFormatter().PrintAlertList(alerts, ctx.Clock.Now())
	return nil
}

// runApptAck acknowledges a delivered alert.
func runApptAck(cmd *cobra.Command, args []string) error {
	alert, err := ctx.AlertRepo.GetByShortHandle(args[0])
	if err != nil {
		return err
	}

	ctx.Port.OnAcknowledge(func(h model.AlertHandle) {
		if !ctx.IsJSON() {
			ctx.CLIFormatter().Printf("%s\n", alert.Body)
		}
	})

	acked, err := ctx.Port.Acknowledge(alert.Handle)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status": "acknowledged",
			"alert":  output.NewAlertOutput(acked),
		})
	}

	ctx.CLIFormatter().Success("Acknowledged alert %s", acked.ShortHandle())
	return nil
}
