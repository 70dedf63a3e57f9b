package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitecms/internal/app"
	"sitecms/internal/config"
	"sitecms/internal/logging"
)

var version = "dev"

var (
	// Global flags
	addr    string
	dataDir string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sitecms",
	Short: "Marketing site and lightweight CMS",
	Long: `sitecms serves the public landing pages together with an admin panel
for the home buttons, the service pages and a visual page editor.

Configuration comes from SITECMS_* environment variables; the flags below
override the most common ones.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.Addr = addr
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			return a.Serve(ctx)
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			return a.ServeMCP(ctx)
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage admin accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add [email]",
	Short: "Create an admin account or reset its password",
	Long: `Creates the admin account, or rotates the password when the account
exists. The password is read from --password or SITECMS_ADMIN_PASSWORD.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("SITECMS_ADMIN_PASSWORD")
		}
		if password == "" {
			return fmt.Errorf("a password is required (--password or SITECMS_ADMIN_PASSWORD)")
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			u, created, err := a.AddUser(ctx, args[0], password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", u.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "updated password for %s\n", u.Email)
			}
			return nil
		})
	},
}

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Compute the daily metrics for one day",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC()
		if date, _ := cmd.Flags().GetString("date"); date != "" {
			parsed, err := time.Parse(time.DateOnly, date)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			day = parsed
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			m, err := a.Rollup(ctx, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d visits, %d unique, %d page views, %d conversions, %d edits, bounce %.1f%%\n",
				m.Date, m.TotalVisits, m.UniqueVisitors, m.TotalPageViews, m.TotalConversions, m.TotalEdits, m.BounceRate)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "listen address (overrides SITECMS_ADDR)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides SITECMS_DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	userAddCmd.Flags().String("password", "", "account password")
	rollupCmd.Flags().String("date", "", "day to compute (YYYY-MM-DD, default today in UTC)")

	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(serveCmd, mcpCmd, userCmd, rollupCmd, versionCmd)
}

// withApp starts the application, runs fn until it returns or the process
// is interrupted, then shuts down.
func withApp(parent context.Context, fn func(ctx context.Context, a *app.App) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger, version)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Shutdown(shutdownCtx)
	}()
	if err := a.Startup(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}
