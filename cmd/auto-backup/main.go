package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/wilterson/auto-backup-manjaro/internal/apps"
	"github.com/wilterson/auto-backup-manjaro/internal/config"
	"github.com/wilterson/auto-backup-manjaro/internal/db"
	"github.com/wilterson/auto-backup-manjaro/internal/logging"
	"github.com/wilterson/auto-backup-manjaro/internal/remote"
	syncer "github.com/wilterson/auto-backup-manjaro/internal/sync"
	"github.com/wilterson/auto-backup-manjaro/pkg/models"
	"github.com/wilterson/auto-backup-manjaro/pkg/utils"
	"github.com/wilterson/auto-backup-manjaro/pkg/version"
)

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:                 "auto-backup",
		Usage:                "Backs up dotfiles, browser data and editor settings to cloud storage",
		Version:              version.Version,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "verbosity",
				Aliases: []string{"v"},
				Usage:   "log verbosity (0=warn, 1=info, 2=debug, 3=trace)",
			},
		},
		Before: func(c *cli.Context) error {
			logging.Setup(c.Int("verbosity"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
			{
				Name:  "backup",
				Usage: "Extract app data, upload a new snapshot and prune old ones",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "apps",
						Usage: "Comma-separated app names to extract (default: all)",
					},
					&cli.BoolFlag{
						Name:  "skip-extract",
						Usage: "Upload the staging tree as-is, without running extractors",
					},
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Number of snapshots to keep (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "no-progress",
						Usage: "Disable the upload progress bar",
					},
				},
				Action: runBackup,
			},
			{
				Name:  "restore",
				Usage: "Download the latest snapshot and restore app data",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "apps",
						Usage: "Comma-separated app names to restore (default: all)",
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
					&cli.BoolFlag{
						Name:  "skip-apps",
						Usage: "Only download the snapshot, do not run app restorers",
					},
				},
				Action: runRestore,
			},
			{
				Name:  "extract",
				Usage: "Run extractors into the local staging tree, without uploading",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "apps",
						Usage: "Comma-separated app names to extract (default: all)",
					},
				},
				Action: runExtract,
			},
			{
				Name:  "prune",
				Usage: "Delete old remote snapshots beyond the keep-count",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Number of snapshots to keep (overrides config)",
					},
				},
				Action: runPrune,
			},
			{
				Name:  "history",
				Usage: "Show recorded backup and restore runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				},
				Action: showHistory,
			},
			{
				Name:  "schedule",
				Usage: "Run backups on a cron schedule until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cron",
						Usage: "Cron expression",
						Value: "0 3 * * *",
					},
				},
				Action: runSchedule,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (remote.Storage, error) {
	switch cfg.Provider {
	case config.ProviderS3:
		return remote.NewS3(cfg.S3)
	default:
		return remote.NewDrive(ctx, cfg.CredentialsFile)
	}
}

func runBackup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.Int("keep") > 0 {
		cfg.KeepCount = c.Int("keep")
	}

	if !c.Bool("skip-extract") {
		if err := extractApps(cfg, c.String("apps")); err != nil {
			return err
		}
	}

	return doBackup(c.Context, cfg, !c.Bool("no-progress"))
}

func doBackup(ctx context.Context, cfg *config.Config, progress bool) error {
	store, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	history, err := db.New(db.DefaultPath())
	if err != nil {
		return fmt.Errorf("failed to open history database: %v", err)
	}
	defer history.Close()

	snapshot := syncer.SnapshotName(time.Now())
	runID, err := history.StartRun(models.RunBackup, snapshot)
	if err != nil {
		return fmt.Errorf("failed to record run: %v", err)
	}

	fmt.Printf("Backing up %s to snapshot %s...\n", cfg.BackupPath, snapshot)

	uploader := syncer.NewUploader(store)
	uploader.Progress = progress
	start := time.Now()

	result, err := uploader.Upload(ctx, cfg.BackupPath, cfg.RemoteFolderID, snapshot)
	if err != nil {
		_ = history.FinishRun(runID, 0, 0, 0, models.StatusFailed)
		return fmt.Errorf("failed to upload: %v", err)
	}

	status := models.StatusOK
	if result.Failed > 0 {
		status = models.StatusPartial
	}
	if err := history.FinishRun(runID, result.Uploaded, result.Failed, result.Bytes, status); err != nil {
		return fmt.Errorf("failed to record run: %v", err)
	}

	fmt.Printf("Backup completed in %s:\n", utils.FormatDuration(time.Since(start)))
	fmt.Printf("- Uploaded: %d files (%s)\n", result.Uploaded, utils.FormatSize(result.Bytes))
	fmt.Printf("- Failed: %d files\n", result.Failed)

	deleted, err := syncer.NewRetention(store, cfg.KeepCount).Apply(ctx, cfg.RemoteFolderID)
	if err != nil {
		return fmt.Errorf("cleanup failed: %v", err)
	}
	if deleted > 0 {
		fmt.Printf("- Removed %d old backup(s), keeping %d most recent\n", deleted, cfg.KeepCount)
	}
	return nil
}

func runRestore(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := newStorage(c.Context, cfg)
	if err != nil {
		return err
	}

	downloader := syncer.NewDownloader(store)
	latest, err := downloader.Latest(c.Context, cfg.RemoteFolderID)
	if err != nil {
		return fmt.Errorf("failed to search for backups: %v", err)
	}
	if latest == nil {
		return fmt.Errorf("no backup found on the remote")
	}

	fmt.Printf("Found backup: %s\n", latest.Name)
	if !latest.CreatedAt.IsZero() {
		fmt.Printf("Created: %s\n", latest.CreatedAt.Local().Format(time.RFC1123))
	}

	if !c.Bool("yes") && !confirm("Download this backup?") {
		fmt.Println("Restore cancelled")
		return nil
	}

	history, err := db.New(db.DefaultPath())
	if err != nil {
		return fmt.Errorf("failed to open history database: %v", err)
	}
	defer history.Close()

	runID, err := history.StartRun(models.RunRestore, latest.Name)
	if err != nil {
		return fmt.Errorf("failed to record run: %v", err)
	}

	fmt.Printf("Downloading backup to %s...\n", cfg.BackupPath)
	result, err := downloader.Download(c.Context, latest, cfg.BackupPath)
	if err != nil {
		_ = history.FinishRun(runID, 0, 0, 0, models.StatusFailed)
		return fmt.Errorf("failed to download: %v", err)
	}

	status := models.StatusOK
	if result.Failed > 0 {
		status = models.StatusPartial
	}
	if err := history.FinishRun(runID, result.Downloaded, result.Failed, result.Bytes, status); err != nil {
		return fmt.Errorf("failed to record run: %v", err)
	}

	fmt.Printf("Downloaded %d files (%s), %d failed\n",
		result.Downloaded, utils.FormatSize(result.Bytes), result.Failed)

	if c.Bool("skip-apps") {
		return nil
	}

	selected, err := apps.Select(c.String("apps"))
	if err != nil {
		return err
	}
	for _, app := range selected {
		fmt.Printf("Restoring %s...\n", app.Name())
		if err := app.Restore(cfg); err != nil {
			fmt.Printf("Failed to restore %s: %v\n", app.Name(), err)
		}
	}
	return nil
}

func runExtract(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return extractApps(cfg, c.String("apps"))
}

func extractApps(cfg *config.Config, selector string) error {
	selected, err := apps.Select(selector)
	if err != nil {
		return err
	}
	for _, app := range selected {
		if !app.Detect() {
			fmt.Printf("Skipping %s: no data found\n", app.Name())
			continue
		}
		fmt.Printf("Extracting %s...\n", app.Name())
		if err := app.Extract(cfg); err != nil {
			fmt.Printf("Failed to extract %s: %v\n", app.Name(), err)
		}
	}
	return nil
}

func runPrune(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.Int("keep") > 0 {
		cfg.KeepCount = c.Int("keep")
	}

	store, err := newStorage(c.Context, cfg)
	if err != nil {
		return err
	}

	deleted, err := syncer.NewRetention(store, cfg.KeepCount).Apply(c.Context, cfg.RemoteFolderID)
	if err != nil {
		return fmt.Errorf("cleanup failed: %v", err)
	}
	if deleted == 0 {
		fmt.Printf("No cleanup needed (keeping %d)\n", cfg.KeepCount)
	} else {
		fmt.Printf("Removed %d old backup(s), keeping %d most recent\n", deleted, cfg.KeepCount)
	}
	return nil
}

func showHistory(c *cli.Context) error {
	history, err := db.New(db.DefaultPath())
	if err != nil {
		return fmt.Errorf("failed to open history database: %v", err)
	}
	defer history.Close()

	runs, err := history.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %-7s  %-19s  %d copied, %d failed (%s)  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Kind,
			run.Snapshot,
			run.Copied,
			run.Failed,
			utils.FormatSize(run.Bytes),
			run.Status,
		)
	}

	stats, err := history.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d runs (%d backups, %d restores), %s transferred\n",
		stats.TotalRuns, stats.BackupRuns, stats.RestoreRuns, utils.FormatSize(stats.TotalBytes))
	return nil
}

func runSchedule(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.GetLogger("schedule")
	cr := cron.New()
	_, err = cr.AddFunc(c.String("cron"), func() {
		log.Info().Msg("scheduled backup starting")
		if err := extractApps(cfg, ""); err != nil {
			log.Error().Err(err).Msg("extract failed")
			return
		}
		if err := doBackup(c.Context, cfg, false); err != nil {
			log.Error().Err(err).Msg("scheduled backup failed")
			return
		}
		log.Info().Msg("scheduled backup finished")
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %v", c.String("cron"), err)
	}

	fmt.Printf("Running backups on schedule %q; press Ctrl+C to stop\n", c.String("cron"))
	cr.Run()
	return nil
}

// confirm asks a single-key y/N question on the terminal.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	char, _, err := keyboard.GetSingleKey()
	if err != nil {
		return false
	}
	fmt.Printf("%c\n", char)
	return char == 'y' || char == 'Y'
}
