package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carbon/internal/amqp"
	"carbon/internal/core"
)

func SetupCommands(a *App) *cobra.Command {
	// root command
	rootCmd := &cobra.Command{
		Use:          "carbon",
		Short:        "Track the carbon footprint of everyday activities",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Serve(cmd.Context())
		},
	}

	// command for logging one activity from the terminal
	addCmd := &cobra.Command{
		Use:   "add <category> <activity> <amount>",
		Short: "Log an activity",
		Args:  cobra.ExactArgs(3),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 0:
				return core.CategoryNames(), cobra.ShellCompDirectiveNoFileComp
			case 1:
				return core.ActivityNames(args[0]), cobra.ShellCompDirectiveNoFileComp
			default:
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[2])
			if err != nil {
				return err
			}
			in := core.ActivityInput{Category: args[0], Activity: args[1], Amount: amount}
			if err := in.Validate(); err != nil {
				return err
			}

			res, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Cleanup()

			rec, err := res.Service.AddActivity(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Activity added! This activity generated %.2f kg CO₂\n", rec.Emissions)
			return nil
		},
	}

	var period string
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show emission totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := core.ParsePeriod(period)
			if err != nil {
				return err
			}
			res, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Cleanup()

			ctx := cmd.Context()
			printStats(cmd.OutOrStdout(), res.Service.Summary(ctx), a.cfg.DailyTargetKg, p, res.Service.CategoryTotals(ctx, p))
			return nil
		},
	}
	statsCmd.Flags().StringVarP(&period, "period", "p", string(core.PeriodAll), "breakdown window: today, week, month or all")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List logged activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Cleanup()
			return printHistory(cmd.OutOrStdout(), res.Service.History(cmd.Context()))
		},
	}

	tipsCmd := &cobra.Command{
		Use:   "tips",
		Short: "Suggest ways to reduce emissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Cleanup()
			for i, tip := range res.Service.Tips(cmd.Context()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, tip)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every logged activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Cleanup()

			removed, err := res.Service.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All activities cleared (%d removed).\n", removed)
			return nil
		},
	}

	factorsCmd := &cobra.Command{
		Use:   "factors",
		Short: "Print the emission factor table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printFactors(cmd.OutOrStdout(), core.Categories())
		},
	}

	var mirror bool
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Follow ledger events from the message broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Events(cmd.Context(), cmd.OutOrStdout(), mirror)
		},
	}
	eventsCmd.Flags().BoolVar(&mirror, "mirror", false, "append logged activities to the Google Sheets mirror")

	// add commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(tipsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(factorsCmd)
	rootCmd.AddCommand(eventsCmd)

	return rootCmd
}

func printStats(out io.Writer, sum core.Summary, target float64, p core.Period, breakdown []core.CategoryAmount) {
	fmt.Fprintf(out, "Today:      %.2f kg CO₂ (target %.2f kg)\n", sum.Today, target)
	fmt.Fprintf(out, "This week:  %.2f kg CO₂\n", sum.Week)
	fmt.Fprintf(out, "This month: %.2f kg CO₂\n", sum.Month)
	fmt.Fprintf(out, "All time:   %.2f kg CO₂\n", sum.All)

	fmt.Fprintf(out, "\nBreakdown (%s):\n", p)
	if len(breakdown) == 0 {
		fmt.Fprintln(out, "  no activities")
		return
	}
	for _, c := range breakdown {
		fmt.Fprintf(out, "  %-26s %8.2f kg CO₂\n", c.Name, c.Emissions)
	}
}

func printHistory(out io.Writer, records []core.ActivityRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No activities logged yet.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tACTION\tCATEGORY\tDATE\tKG CO₂")
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\n", i+1, r.Activity, r.Category, r.Date, r.Emissions)
	}
	return tw.Flush()
}

func printFactors(out io.Writer, categories []core.Category) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range categories {
		fmt.Fprintf(tw, "%s (%s)\n", c.Name, c.Unit)
		for _, f := range c.Factors {
			fmt.Fprintf(tw, "  %s\t%s\n", f.Activity, f.Factor.String())
		}
	}
	return tw.Flush()
}

func printEvent(out io.Writer, ev *amqp.LedgerEvent) error {
	at := ev.Timestamp.Format("2006-01-02 15:04:05")
	switch ev.Type {
	case amqp.EventActivityLogged:
		if ev.Activity == nil {
			return fmt.Errorf("%s event without activity", ev.Type)
		}
		_, err := fmt.Fprintf(out, "%s %s %s / %s %.2f kg CO₂\n",
			at, ev.Type, ev.Activity.Category, ev.Activity.Activity, ev.Activity.Emissions)
		return err
	case amqp.EventLedgerCleared:
		_, err := fmt.Fprintf(out, "%s %s removed=%d\n", at, ev.Type, ev.Removed)
		return err
	default:
		_, err := fmt.Fprintf(out, "%s %s\n", at, strings.TrimSpace(ev.Type))
		return err
	}
}
