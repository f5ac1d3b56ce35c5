package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"routineboard/internal/app"
	"routineboard/internal/config"
	"routineboard/internal/seed"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "routinectl",
		Short:         "Manage routine board data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(newMigrateCmd(&debug))
	root.AddCommand(newSeedCmd(&debug))
	root.AddCommand(newMaterializeCmd(&debug))
	root.AddCommand(newBoardCmd(&debug))
	root.AddCommand(newSummaryCmd(&debug))
	return root
}

// loadApp opens the configured database and applies pending migrations
func loadApp(ctx context.Context, debug bool) (*app.App, error) {
	cfg := config.Load()
	cfg.Debug = cfg.Debug || debug
	app.SetupLogging(cfg)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newMigrateCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *debug)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
			return err
		},
	}
}

func newSeedCmd(debug *bool) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load families, children and routines from a YAML catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := seed.LoadCatalog(file)
			if err != nil {
				return err
			}
			a, err := loadApp(cmd.Context(), *debug)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := seed.Apply(cmd.Context(), a.DB, catalog)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "families=%d children=%d routines=%d achievements=%d\n",
				result.Families, result.Children, result.Routines, result.Achievements)
			for _, p := range result.PINs {
				fmt.Fprintf(out, "generated PIN for %s (%s): %s\n", p.Name, p.ChildID, p.PIN)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "catalog.yaml", "Catalog file")
	return cmd
}

func newMaterializeCmd(debug *bool) *cobra.Command {
	var childID, date string

	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Create scheduled sessions for today and the upcoming days",
		Long: "Without --child, every child gets sessions for today and the configured upcoming days\n" +
			"and stale sessions are skipped. With --child, only the given date is created.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date != "" && childID == "" {
				return errors.New("--date requires --child")
			}
			a, err := loadApp(cmd.Context(), *debug)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if childID == "" {
				result, err := a.Scheduler.MaterializeHorizon(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "children=%d created=%d skipped=%d\n", result.Children, result.Created, result.Skipped)
				return err
			}

			if date == "" {
				date = time.Now().Format(time.DateOnly)
			}
			created, err := a.Scheduler.MaterializeDay(cmd.Context(), childID, date)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "created=%d\n", created)
			return err
		},
	}
	cmd.Flags().StringVar(&childID, "child", "", "Child profile id")
	cmd.Flags().StringVar(&date, "date", "", "Session date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newBoardCmd(debug *bool) *cobra.Command {
	var childID string
	var tabs bool

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print a child's routine board as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *debug)
			if err != nil {
				return err
			}
			defer a.Close()

			if tabs {
				model, err := a.Board.Tabs(cmd.Context(), childID, time.Now())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), model)
			}
			board, err := a.Board.Board(cmd.Context(), childID, time.Now())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), board.Data)
		},
	}
	cmd.Flags().StringVar(&childID, "child", "", "Child profile id")
	cmd.Flags().BoolVar(&tabs, "tabs", false, "Print the tab model instead of the grouped board")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}

func newSummaryCmd(debug *bool) *cobra.Command {
	var childID, sessionID string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the success summary of a completed session as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *debug)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Board.SuccessSummary(cmd.Context(), childID, sessionID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&childID, "child", "", "Child profile id")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id")
	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}
