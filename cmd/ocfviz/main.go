// ocfviz builds and reconciles ecotoxicity chart descriptions and serves
// them to the OpenChemFacts frontend.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/api"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/config"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/datasource"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger/console"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	// A missing .env is fine; the environment may be set another way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ocfviz",
	Short: "Ecotoxicity chart engine for OpenChemFacts",
	Long: `ocfviz turns ecotoxicity datasets into chart descriptions and merges
server-rendered charts with the local presentation defaults.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Level:  level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(reportCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ocfviz %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		srv.Version = version
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and data source reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  ocfviz status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Printf("    Data source:   %s\n", cfg.Source.BaseURL)
		fmt.Printf("    Cache TTL:     %s\n", cfg.Source.CacheTTL)
		fmt.Printf("    Logging:       %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		fmt.Println()

		client, err := datasource.NewClient(datasource.OptionsFromConfig(cfg.Source))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		reach := "reachable"
		if err := client.Ping(ctx); err != nil {
			reach = "unreachable (" + err.Error() + ")"
		}
		fmt.Printf("  Data source:   %s\n", reach)
		fmt.Println()

		cred := config.SourceCredential(cfg)
		key := "not set"
		if cred.Set {
			key = fmt.Sprintf("set via %s (%s)", cred.Origin, cred.Hint)
		}
		fmt.Printf("  API key:       %s, sent as %s\n", key, cred.Header)
		for _, w := range cred.Warnings {
			fmt.Printf("    warning: %s\n", w)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
