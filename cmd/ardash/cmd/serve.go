package cmd

import (
	"context"
	"fmt"
	"time"

	"golang-ar-analytics-service/cmd/ardash/config"
	"golang-ar-analytics-service/internal/access"
	"golang-ar-analytics-service/internal/analytics"
	"golang-ar-analytics-service/internal/ardata"
	"golang-ar-analytics-service/internal/jobs"
	"golang-ar-analytics-service/internal/server"
	"golang-ar-analytics-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the serve command
var (
	serveAddr       string
	serveExtract    string
	cacheTTL        time.Duration
	refreshSchedule string
	accessDB        string
	bootstrapAdmins []string
	noAuth          bool
	disputeKeyword  string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analytics HTTP service",
	Long: `Serve loads the newest AR extract and exposes the dashboard
aggregations over HTTP. By default the extract is fetched from the
SharePoint folder configured through SP_* environment variables; pass
--extract-file to serve from a local file instead.

Examples:
  # Serve from SharePoint with a half-hourly refresh
  ardash serve --addr :8080 --refresh-schedule "*/30 * * * *"

  # Serve a local extract without authentication
  ardash serve --extract-file extract.csv --no-auth`,

	PreRunE: validateServeFlags,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveExtract, "extract-file", "", "serve a local extract file instead of SharePoint")
	serveCmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 5*time.Minute, "snapshot cache TTL")
	serveCmd.Flags().StringVar(&refreshSchedule, "refresh-schedule", "", "cron schedule for background refresh (empty: disabled)")
	serveCmd.Flags().StringVar(&accessDB, "access-db", "config/authorized_users.json", "path to the authorized-users store")
	serveCmd.Flags().StringSliceVar(&bootstrapAdmins, "bootstrap-admins", nil, "emails always granted active admin access")
	serveCmd.Flags().BoolVar(&noAuth, "no-auth", false, "disable the access middleware")
	serveCmd.Flags().StringVar(&disputeKeyword, "dispute-keyword", "", "projection keyword marking dispute buckets (default: Dispute)")

	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("extract-file", serveCmd.Flags().Lookup("extract-file"))
	viper.BindPFlag("cache-ttl", serveCmd.Flags().Lookup("cache-ttl"))
	viper.BindPFlag("refresh-schedule", serveCmd.Flags().Lookup("refresh-schedule"))
	viper.BindPFlag("access-db", serveCmd.Flags().Lookup("access-db"))
	viper.BindPFlag("bootstrap-admins", serveCmd.Flags().Lookup("bootstrap-admins"))
	viper.BindPFlag("no-auth", serveCmd.Flags().Lookup("no-auth"))
	viper.BindPFlag("dispute-keyword", serveCmd.Flags().Lookup("dispute-keyword"))
}

func validateServeFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	serveAddr = viper.GetString("addr")
	serveExtract = viper.GetString("extract-file")
	cacheTTL = viper.GetDuration("cache-ttl")
	refreshSchedule = viper.GetString("refresh-schedule")
	accessDB = viper.GetString("access-db")
	bootstrapAdmins = viper.GetStringSlice("bootstrap-admins")
	noAuth = viper.GetBool("no-auth")
	disputeKeyword = viper.GetString("dispute-keyword")

	if !noAuth && accessDB == "" {
		return fmt.Errorf("access-db is required unless --no-auth is set")
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()
	log := logger.GetGlobalLogger().WithComponent("serve")

	source, err := config.CreateSource(serveExtract)
	if err != nil {
		return handler.Report(err)
	}
	model := ardata.NewModel(source, config.CreateCleanerConfig())
	engine := analytics.NewEngine(config.CreateAnalyticsConfig(disputeKeyword))

	var store *access.Store
	if !noAuth {
		store, err = access.NewStore(accessDB)
		if err != nil {
			return handler.Report(err)
		}
		if err := store.BootstrapAdmins(bootstrapAdmins); err != nil {
			return handler.Report(err)
		}
	}

	// Warm the snapshot so the first request does not pay the fetch.
	// Startup proceeds on failure; handlers retry per request.
	if err := model.Load(context.Background()); err != nil {
		log.WithError(err).Warn("Initial extract load failed, continuing without snapshot")
	}

	if refreshSchedule != "" {
		refresher := jobs.NewRefresher(model, refreshSchedule, 2*time.Minute)
		if err := refresher.Start(); err != nil {
			return handler.Report(fmt.Errorf("invalid refresh schedule %q: %w", refreshSchedule, err))
		}
		defer refresher.Stop()
	}

	srv := server.New(config.CreateServerConfig(serveAddr, cacheTTL, noAuth), model, engine, store)
	if err := srv.ListenAndServe(); err != nil {
		return handler.Report(err)
	}
	return nil
}
