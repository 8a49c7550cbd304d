package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunlend/solarqual/internal/api"
	"github.com/sunlend/solarqual/internal/audit"
	"github.com/sunlend/solarqual/internal/config"
	"github.com/sunlend/solarqual/internal/cron"
	"github.com/sunlend/solarqual/internal/migrate"
)

func main() {
	root := &cobra.Command{
		Use:           "solarqual",
		Short:         "Residential solar loan qualification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), workerCmd(), migrateCmd(), logsCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("solarqual: %v", err)
	}
}

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = os.Getenv("PORT")
			}
			if port == "" {
				port = "8000"
			}

			mux := api.NewMux(config.FromEnv())

			addr := ":" + port
			log.Printf("solarqual listening on %s", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default $PORT or 8000)")
	return cmd
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the snapshot refresh worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			driver := os.Getenv("SOLARQUAL_DB_DRIVER")
			dsn := os.Getenv("SOLARQUAL_DB_DSN")
			return cron.Run(ctx, config.FromEnv(), driver, dsn)
		},
	}
}

func migrateCmd() *cobra.Command {
	driverDSN := func() (string, string) {
		driver := os.Getenv("SOLARQUAL_DB_DRIVER")
		dsn := os.Getenv("SOLARQUAL_DB_DSN")
		if driver == "" {
			driver = "sqlite"
		}
		if dsn == "" {
			dsn = "solarqual.db"
		}
		return driver, dsn
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				driver, dsn := driverDSN()
				return migrate.Up(cmd.Context(), driver, dsn)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				driver, dsn := driverDSN()
				return migrate.Down(cmd.Context(), driver, dsn)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, args []string) error {
				driver, dsn := driverDSN()
				return migrate.Status(cmd.Context(), driver, dsn)
			},
		},
	)
	return cmd
}

func logsCmd() *cobra.Command {
	var dir string
	var limit int

	cmd := &cobra.Command{
		Use:   "logs [log-type]",
		Short: "Summarize the JSONL audit logs, or tail one log type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := audit.NewReader(dir)

			if len(args) == 1 {
				return tailLog(cmd, reader, args[0], limit)
			}
			return printSummary(cmd, reader)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "logs", "audit log directory")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries to show")
	return cmd
}

func printSummary(cmd *cobra.Command, reader *audit.Reader) error {
	sum, err := reader.Summarize()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "API LOGS SUMMARY")
	fmt.Fprintf(out, "Total API Requests: %d\n", sum.TotalRequests)
	fmt.Fprintf(out, "Total Errors: %d\n", sum.ErrorsCount)
	fmt.Fprintf(out, "Unique ZIP Codes: %d\n", sum.UniqueZipCodes)

	if len(sum.EndpointsUsed) > 0 {
		fmt.Fprintln(out, "\nEndpoints Used:")
		for endpoint, count := range sum.EndpointsUsed {
			fmt.Fprintf(out, "  %s: %d requests\n", endpoint, count)
		}
	}
	if len(sum.DataSourcesUsed) > 0 {
		fmt.Fprintln(out, "\nData Sources Used:")
		for source, count := range sum.DataSourcesUsed {
			fmt.Fprintf(out, "  %s: %d times\n", source, count)
		}
	}
	if len(sum.RecentRequests) > 0 {
		fmt.Fprintln(out, "\nRecent Requests:")
		for _, req := range sum.RecentRequests {
			fmt.Fprintf(out, "  [%s] %s - ZIP: %s\n", req.Timestamp, req.Endpoint, req.ZipCode)
		}
	}
	return nil
}

func tailLog(cmd *cobra.Command, reader *audit.Reader, logType string, limit int) error {
	entries, total, err := reader.Read(logType, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: showing %d of %d entries\n", logType, len(entries), total)
	for _, entry := range entries {
		var buf map[string]any
		if err := json.Unmarshal(entry, &buf); err != nil {
			continue
		}
		pretty, _ := json.MarshalIndent(buf, "", "  ")
		fmt.Fprintln(out, string(pretty))
	}
	return nil
}
