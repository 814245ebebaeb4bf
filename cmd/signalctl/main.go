// Package main provides the operator CLI for the form signal engine.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/form-signals/internal/config"
	"github.com/yourusername/form-signals/internal/database"
	"github.com/yourusername/form-signals/internal/engine"
	"github.com/yourusername/form-signals/internal/logger"
	"github.com/yourusername/form-signals/internal/models"
	"github.com/yourusername/form-signals/internal/publisher"
	"github.com/yourusername/form-signals/internal/repository"
	"github.com/yourusername/form-signals/internal/service"
)

const dateLayout = "2006-01-02"

var (
	configFile string
	timeout    time.Duration
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Path to configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Command timeout")

	statsCmd.Flags().String("rule", "", "Only count opportunities of this rule slug")
	statsCmd.Flags().String("from", "", "Only count opportunities created on or after this date (YYYY-MM-DD)")
	statsCmd.Flags().String("to", "", "Only count opportunities created before the end of this date (YYYY-MM-DD)")

	rootCmd.AddCommand(migrateCmd, analyzeCmd, backfillCmd, statsCmd)
}

var rootCmd = &cobra.Command{
	Use:   "signalctl",
	Short: "Operate the form signal engine",
	Long:  `Runs migrations, analyses single matches, settles outcomes and reports rule statistics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.LoadValidated(cmd.Context(), configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel)

		db, err = database.NewDB(cmd.Context(), &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err = repository.NewRepositories(db)
		if err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if err := db.Migrate(ctx); err != nil {
			return err
		}
		version, err := db.MigrationVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <match-id>",
	Short: "Evaluate every rule against one match and store the results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matchID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || matchID <= 0 {
			return fmt.Errorf("invalid match id %q", args[0])
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		opps, err := newService().AnalyzeMatchByID(ctx, matchID)
		if err != nil {
			return err
		}
		if len(opps) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no opportunities for match %d\n", matchID)
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tSUBJECT\tCONFIDENCE\tOUTCOME\tID")
		for _, o := range opps {
			fmt.Fprintf(w, "%s\t%s\t%.3f\t%s\t%s\n", o.RuleSlug, o.Subject, o.Confidence, o.Outcome, o.ID)
		}
		return w.Flush()
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Settle pending opportunities of finished matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		report, err := newService().RunBackfill(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "resolved: %d\nunresolved: %d\nskipped: %d\n", report.Resolved, report.Unresolved, len(report.Skipped))
		for _, skip := range report.Skipped {
			fmt.Fprintf(out, "  %v\n", skip)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show win/loss statistics of resolved opportunities",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := statisticsFilter(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		stats, err := newService().Statistics(ctx, filter)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "total: %d\nwins: %d\nlosses: %d\nwin_rate: %.1f%%\npending: %d\n",
			stats.Total, stats.Wins, stats.Losses, stats.WinRate, stats.Pending)
		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// newService builds a signal service that logs instead of publishing.
func newService() *service.SignalService {
	return service.NewSignalService(
		engine.New(cfg.Rules.Thresholds()),
		repos,
		publisher.NewLogPublisher(appLog),
		cfg.Analysis,
		appLog,
	)
}

func statisticsFilter(cmd *cobra.Command) (models.StatisticsFilter, error) {
	var filter models.StatisticsFilter

	rule, _ := cmd.Flags().GetString("rule")
	filter.RuleSlug = rule

	from, _ := cmd.Flags().GetString("from")
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return filter, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		filter.From = &t
	}

	to, _ := cmd.Flags().GetString("to")
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return filter, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}

	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, fmt.Errorf("--to is before --from")
	}
	return filter, nil
}
