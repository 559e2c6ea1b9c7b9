package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/sleepsync/internal/syncer"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a sync would change without changing it",
	Long: `Authenticate, compute tonight's bedtime and wake time and read the current
mattress schedule and alarms. Nothing on the mattress is modified.`,
	Example: `  sleepsync plan
  sleepsync -c /etc/sleepsync/sleepsync.yaml plan`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	preview, err := newSyncer(cfg, logger).Plan(context.Background())
	if err != nil {
		return err
	}

	printPlan(os.Stdout, preview)
	return nil
}

// printPlan renders a preview with changed values highlighted.
func printPlan(w io.Writer, p *syncer.Preview) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	_, _ = cyan.Fprintln(w, "Tonight's plan")
	fmt.Fprintf(w, "  Source:      %s\n", p.Plan.Source)
	if p.Plan.TimeInBed > 0 {
		fmt.Fprintf(w, "  Time in bed: %s\n", p.Plan.TimeInBed)
	}
	fmt.Fprintf(w, "  Bedtime:     %s\n", p.Plan.Bedtime.Format("Mon 02 Jan 15:04 -0700"))
	fmt.Fprintf(w, "  Wake:        %s\n", p.Plan.Wake.Format("Mon 02 Jan 15:04 -0700"))

	_, _ = cyan.Fprintf(w, "\nDevice (%s)\n", p.TimeZone)
	change := func(label, from, to string) {
		if from == to {
			_, _ = green.Fprintf(w, "  %-9s %s (unchanged)\n", label, to)
			return
		}
		_, _ = yellow.Fprintf(w, "  %-9s %s -> %s\n", label, orNone(from), to)
	}
	change("Schedule", p.Schedule.Time, p.Bedtime)
	fmt.Fprintf(w, "            id %s, days %s\n", p.Schedule.ID, strings.Join(p.Schedule.Days, ","))

	if len(p.Alarms) == 0 {
		fmt.Fprintln(w, "  Alarms    none to delete")
	}
	for _, a := range p.Alarms {
		_, _ = red.Fprintf(w, "  Alarm     delete %s (%s)\n", a.ID, orNone(a.Time))
	}
	_, _ = yellow.Fprintf(w, "  Alarm     create new alarm at %s\n", p.Wake)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
