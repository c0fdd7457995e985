/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/exercise-tracker/apiserver/internal/server"
	"github.com/exercise-tracker/apiserver/internal/services"
	"github.com/exercise-tracker/apiserver/internal/storage"
	"github.com/spf13/cobra"
)

var exportFlags struct {
	userID string
	from   string
	to     string
	limit  int
}

// exportCmd uploads a user's exercise log to object storage.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's exercise log to object storage",
	Long: `Runs the same log query as GET /api/users/{_id}/logs and uploads the
result as JSON to the configured MinIO or GCS bucket. Usage:

	exercisetracker export --user <id> [--from 2024-01-01] [--to 2024-12-31] [--limit 10]
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFlags.userID == "" {
			return errors.New("--user is required")
		}

		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		repos, closeStore, err := server.OpenRepositories(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()

		objects, err := storage.Open(ctx, cfg.ObjectStorage)
		if err != nil {
			return err
		}
		defer objects.Close()

		users := services.NewUserService(repos.Users, nil, log)
		logs := services.NewLogService(users, repos.Exercises, log)

		query := services.LogQuery{
			UserID: exportFlags.userID,
			From:   exportFlags.from,
			To:     exportFlags.to,
		}
		if exportFlags.limit > 0 {
			query.Limit = strconv.Itoa(exportFlags.limit)
		}

		exerciseLog, err := logs.Get(ctx, query)
		if err != nil {
			return err
		}

		key, err := objects.ExportLog(ctx, exerciseLog, time.Now())
		if err != nil {
			return err
		}
		log.Info("exported exercise log",
			"user_id", exerciseLog.UserID,
			"count", exerciseLog.Count,
			"bucket", objects.Bucket(),
			"key", key)
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var exportKey string

// exportGetCmd downloads a previous export and prints it.
var exportGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print a stored log export",
	Long: `Downloads an export written by "export" and prints it as JSON. Usage:

	exercisetracker export get --key exports/<id>/<unix>.json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, log, err := openExportStorage(cmd)
		if err != nil {
			return err
		}
		defer objects.Close()

		exerciseLog, err := objects.ReadExport(cmd.Context(), exportKey)
		if err != nil {
			return err
		}
		log.Info("read exercise log export", "bucket", objects.Bucket(), "key", exportKey, "count", exerciseLog.Count)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(exerciseLog)
	},
}

// exportDeleteCmd removes a previous export.
var exportDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a stored log export",
	Long: `Removes an export written by "export". Usage:

	exercisetracker export delete --key exports/<id>/<unix>.json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, log, err := openExportStorage(cmd)
		if err != nil {
			return err
		}
		defer objects.Close()

		if err := objects.DeleteExport(cmd.Context(), exportKey); err != nil {
			return err
		}
		log.Info("deleted exercise log export", "bucket", objects.Bucket(), "key", exportKey)
		return nil
	},
}

func openExportStorage(cmd *cobra.Command) (*storage.Storage, *slog.Logger, error) {
	cfg, log, err := loadRuntime()
	if err != nil {
		return nil, nil, err
	}
	objects, err := storage.Open(cmd.Context(), cfg.ObjectStorage)
	if err != nil {
		return nil, nil, err
	}
	return objects, log, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportGetCmd, exportDeleteCmd)

	for _, c := range []*cobra.Command{exportGetCmd, exportDeleteCmd} {
		c.Flags().StringVar(&exportKey, "key", "", "object key printed by export")
		_ = c.MarkFlagRequired("key")
	}

	exportCmd.Flags().StringVar(&exportFlags.userID, "user", "", "user _id to export")
	exportCmd.Flags().StringVar(&exportFlags.from, "from", "", "only include exercises on or after this date")
	exportCmd.Flags().StringVar(&exportFlags.to, "to", "", "only include exercises on or before this date")
	exportCmd.Flags().IntVar(&exportFlags.limit, "limit", 0, "maximum number of exercises (0 for all)")
}
