package cmd

import (
	"fmt"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort     int
	serveBind     string
	serveTLSCert  string
	serveTLSKey   string
	serveAPIKey   string
	servePageSize int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the surveilrise HTTP server",
	Long: `Start the card search server: a JSON API under /api/ and HTML search
pages at /.

Configuration can be provided via flags, environment variables
(SURVEILRISE_SERVER_PORT, SURVEILRISE_SERVER_BIND, SURVEILRISE_SERVER_DB_URL,
SURVEILRISE_SERVER_TLS_CERT, SURVEILRISE_SERVER_TLS_KEY,
SURVEILRISE_SERVER_API_KEY, SURVEILRISE_SERVER_PAGE_SIZE), or a config file at
~/.surveilrise/server.yaml. Without a PostgreSQL URL the --db SQLite file is
served.`,
	RunE: runServe,
}

func init() {
	cfg := server.DefaultConfig()
	serveCmd.Flags().IntVar(&servePort, "port", cfg.Port, "Listen port")
	serveCmd.Flags().StringVar(&serveBind, "bind", cfg.Bind, "Bind address")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file path")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS key file path")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Require this bearer token on /api/ routes")
	serveCmd.Flags().IntVar(&servePageSize, "page-size", cfg.PageSize, "Default cards per page")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Config file and env vars first, then flags.
	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind = serveBind
	}
	if cmd.Flags().Changed("tls-cert") {
		cfg.TLSCert = serveTLSCert
	}
	if cmd.Flags().Changed("tls-key") {
		cfg.TLSKey = serveTLSKey
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = serveAPIKey
	}
	if cmd.Flags().Changed("page-size") {
		cfg.PageSize = servePageSize
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DBUrl = dbURL
	}

	var store db.Store
	if cfg.DBUrl != "" {
		store, err = db.OpenPostgres(cfg.DBUrl)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	} else {
		store, err = openStore()
		if err != nil {
			return err
		}
	}
	defer store.Close()

	srv := server.New(store, cfg)
	return srv.ListenAndServe()
}
