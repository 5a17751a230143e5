package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"placetime/backend/internal/bootstrap"
	"placetime/backend/internal/config"
	"placetime/backend/internal/placefile"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "placetime-admin",
		Short:         "Maintenance commands for the placetime backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newRolloverCmd())
	root.AddCommand(newStreaksCmd())
	root.AddCommand(newPlacesCmd())
	return root
}

func loadApp() (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, log.New(os.Stderr, "", log.LstdFlags))
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close(context.Background())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied successfully")
			return nil
		},
	}
}

func newRolloverCmd() *cobra.Command {
	var ownerID string
	cmd := &cobra.Command{
		Use:   "rollover --owner <id>",
		Short: "Run the week transition check for an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(ownerID) == "" {
				return fmt.Errorf("--owner is required")
			}
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			result, err := app.Rollover.CheckAndHandleWeekTransition(cmd.Context(), ownerID)
			if err != nil {
				return err
			}
			if !result.Rolled {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "already current (week of %s)\n", result.CurrentWeekStart.Format("2006-01-02"))
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "finalized week of %s: completed=%t carried=%d pruned=%d\n",
				result.PreviousWeekStart.Format("2006-01-02"), result.Progress != nil, result.CarriedGoals, result.DeletedSessions)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	return cmd
}

func newStreaksCmd() *cobra.Command {
	var ownerID string
	cmd := &cobra.Command{
		Use:   "streaks --owner <id>",
		Short: "Print an owner's streaks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(ownerID) == "" {
				return fmt.Errorf("--owner is required")
			}
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			streaks, apiErr := app.Progress.Streaks(cmd.Context(), ownerID)
			if apiErr != nil {
				return apiErr
			}
			for _, s := range streaks {
				name := "all goals"
				if s.Category != nil {
					name = s.Category.DisplayName()
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tcurrent=%d\tbest=%d\ttotal=%d\n", name, s.CurrentStreak, s.BestStreak, s.TotalWeeksCompleted)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	return cmd
}

func newPlacesCmd() *cobra.Command {
	places := &cobra.Command{Use: "places", Short: "Place maintenance"}

	var ownerID, path string
	importCmd := &cobra.Command{
		Use:   "import --owner <id> --file <places.yaml>",
		Short: "Create places from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(path) == "" {
				return fmt.Errorf("--owner and --file are required")
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			inputs, err := placefile.Parse(f)
			if err != nil {
				return err
			}
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			created, apiErr := app.Places.Import(cmd.Context(), ownerID, inputs)
			for _, p := range created {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.ID, p.Category, p.Name)
			}
			if apiErr != nil {
				return apiErr
			}
			return nil
		},
	}
	importCmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	importCmd.Flags().StringVar(&path, "file", "", "YAML place file")

	places.AddCommand(importCmd)
	return places
}
