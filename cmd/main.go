package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bryan-cox/taskquest/internal/clipboard"
	"github.com/bryan-cox/taskquest/internal/extract"
	"github.com/bryan-cox/taskquest/internal/reconcile"
	"github.com/bryan-cox/taskquest/internal/report"
	"github.com/bryan-cox/taskquest/internal/scorer"
	"github.com/bryan-cox/taskquest/internal/watch"
)

// --- Cobra Command Definitions ---

var (
	// Used for flags.
	configPath string
	vaultPath  string
	copyStats  bool
	tagFilter  string
	fileFilter string
	deleteFile string
	deleteTask string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:          "taskquest",
		Short:        "Earn points for the tasks you check off in your notes.",
		Long:         `TaskQuest scans a folder of markdown notes for checkbox tasks, scores each newly completed task, and keeps a running tally of points, XP and achievements.`,
		SilenceUsage: true,
	}

	// scanCmd represents the scan command
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Reconcile every tracked note once.",
		Long:  `Runs one reconciliation pass over the tracked notes, waits for every queued assessment to finish, and prints a summary.`,
		RunE:  runScanCommand,
	}

	// watchCmd represents the watch command
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Reconcile notes as they change.",
		Long:  `Scans the vault, then reconciles notes whenever they are written and rescans every scan_interval until interrupted.`,
		RunE:  runWatchCommand,
	}

	// statsCmd represents the stats command
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show points, level and achievements.",
		RunE:  runStatsCommand,
	}

	// tasksCmd represents the tasks command
	tasksCmd = &cobra.Command{
		Use:   "tasks",
		Short: "List stored task records.",
		RunE:  runTasksCommand,
	}

	tasksDeleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete one stored task record.",
		RunE:  runTasksDeleteCommand,
	}

	tasksClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored task record.",
		RunE:  runTasksClearCommand,
	}

	// scoreCmd represents the score command
	scoreCmd = &cobra.Command{
		Use:   "score <task text>",
		Short: "Score a task without recording it.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScoreCommand,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Errors from commands are handled by slog, so we just exit.
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "taskquest.yml", "Path to the YAML config file.")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "Vault directory (overrides the config).")

	statsCmd.Flags().BoolVar(&copyStats, "copy", false, "Copy the stats summary to the clipboard.")

	tasksCmd.Flags().StringVar(&tagFilter, "tag", "", "Only show tasks with this tag.")
	tasksCmd.Flags().StringVar(&fileFilter, "file", "", "Only show tasks from this note.")

	tasksDeleteCmd.Flags().StringVar(&deleteFile, "file", "", "Note path of the record.")
	tasksDeleteCmd.Flags().StringVar(&deleteTask, "task", "", "Task text of the record.")
	tasksDeleteCmd.MarkFlagRequired("file")
	tasksDeleteCmd.MarkFlagRequired("task")

	tasksCmd.AddCommand(tasksDeleteCmd)
	tasksCmd.AddCommand(tasksClearCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(scoreCmd)
}

// --- Main Application Entry Point ---

func main() {
	// Setup structured JSON logger for errors.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	Execute()
}

// --- Command Execution Logic ---

func runScanCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		slog.Error("failed to start", "error", err, "config", configPath)
		return err
	}

	res, err := a.rec.Scan(ctx)
	if err != nil {
		slog.Error("scan failed", "error", err, "vault", a.vault.Root())
		return err
	}
	if err := a.queue.WaitIdle(ctx); err != nil {
		slog.Error("interrupted while scoring tasks", "error", err)
		return err
	}
	if err := scanErrors(res); err != nil {
		slog.Warn("some notes were skipped", "error", err)
	}

	totals := a.player.Snapshot()
	cmd.Printf("Scanned %d notes: %d tasks completed, %d unchecked (-%d points).\n",
		len(res.Notes), res.Enqueued, res.Unchecked, res.Deducted)
	cmd.Printf("Total points: %d\n", totals.Points)
	return nil
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		slog.Error("failed to start", "error", err, "config", configPath)
		return err
	}

	if _, err := a.rec.Scan(ctx); err != nil {
		slog.Error("initial scan failed", "error", err, "vault", a.vault.Root())
		return err
	}

	w, err := watch.New(a.vault.Root(), a.rec, watch.Options{
		Interval:       a.cfg.ScanInterval,
		StorageFolder:  a.cfg.StorageFolder,
		TrackedFolders: a.cfg.TrackedFolders,
		Logger:         slog.Default(),
	})
	if err != nil {
		slog.Error("failed to watch vault", "error", err, "vault", a.vault.Root())
		return err
	}
	if err := w.Run(ctx); err != nil {
		slog.Error("watch stopped", "error", err)
		return err
	}

	// Let the job in progress finish so its points are saved.
	waitCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Scoring.Timeout)
	defer cancel()
	if err := a.queue.WaitIdle(waitCtx); err != nil {
		slog.Warn("exiting with assessments still queued", "queued", a.queue.Len())
	}
	return nil
}

func runStatsCommand(cmd *cobra.Command, args []string) error {
	a, err := openStateFromFlags()
	if err != nil {
		return err
	}

	totals := a.player.Snapshot()
	cmd.Println(report.Card(totals))

	if copyStats {
		if err := clipboard.CopyText(report.Summary(totals)); err != nil {
			slog.Error("failed to copy stats", "error", err)
			return err
		}
		cmd.Println("Stats copied to clipboard.")
	}
	return nil
}

func runTasksCommand(cmd *cobra.Command, args []string) error {
	a, err := openStateFromFlags()
	if err != nil {
		return err
	}

	filter := report.Filter{Tag: tagFilter, File: fileFilter}
	report.Print(cmd.OutOrStdout(), report.GroupRecords(a.store.Records(), filter))
	return nil
}

func runTasksDeleteCommand(cmd *cobra.Command, args []string) error {
	a, err := openStateFromFlags()
	if err != nil {
		return err
	}

	deleted, err := a.store.Delete(deleteFile, deleteTask)
	if err != nil {
		slog.Error("failed to delete task record", "error", err, "path", deleteFile, "task", deleteTask)
		return err
	}
	if !deleted {
		err := fmt.Errorf("no record for task %q in '%s'", deleteTask, deleteFile)
		slog.Error("failed to delete task record", "error", err)
		return err
	}
	cmd.Printf("Deleted %q from %s.\n", deleteTask, deleteFile)
	return nil
}

func runTasksClearCommand(cmd *cobra.Command, args []string) error {
	a, err := openStateFromFlags()
	if err != nil {
		return err
	}

	n := len(a.store.Records())
	if err := a.store.Clear(); err != nil {
		slog.Error("failed to clear task records", "error", err)
		return err
	}
	cmd.Printf("Cleared %d task records.\n", n)
	return nil
}

func runScoreCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", configPath)
		return err
	}

	text := strings.TrimSpace(args[0])
	tags := extract.Tags(text)

	s, err := scorer.New(ctx, cfg.Scoring)
	if err != nil {
		slog.Error("failed to create scorer", "error", err)
		return err
	}
	scoreCtx, cancel := context.WithTimeout(ctx, cfg.Scoring.Timeout)
	defer cancel()

	points, err := s.Score(scoreCtx, text, tags)
	if err != nil {
		slog.Warn("scorer failed, using heuristic", "error", err, "provider", cfg.Scoring.Provider)
		points = scorer.NewHeuristic(cfg.Scoring).Points(tags)
		cmd.Printf("%d points (heuristic)\n", points)
		return nil
	}
	cmd.Printf("%d points\n", points)
	return nil
}

// --- Helper Functions ---

func openStateFromFlags() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", configPath)
		return nil, err
	}
	a, err := openState(cfg)
	if err != nil {
		slog.Error("failed to open vault", "error", err, "vault", cfg.Vault)
		return nil, err
	}
	return a, nil
}

// scanErrors joins the per-note failures of a scan.
func scanErrors(res reconcile.ScanResult) error {
	var errs []error
	for path, err := range res.Failed {
		errs = append(errs, fmt.Errorf("'%s': %w", path, err))
	}
	return errors.Join(errs...)
}
