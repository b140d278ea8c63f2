package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/canvasflow/internal/cli"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canvasflow",
	Short: "canvasflow executes node-based visual workflows",
	Long: `canvasflow validates, orders and executes workflow graphs exported from a
node canvas. Graphs are YAML or JSON files of typed nodes and connections.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log to stderr at this level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON")
}

func loggerFromFlags(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	jsonFormat, _ := cmd.Flags().GetBool("log-json")
	return cli.CreateLogger(level, jsonFormat)
}

// addEngineFlags registers the flags read by engineOptions.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("handlers", "handlers.yaml", "YAML file binding node types to commands")
	cmd.Flags().Bool("dry-run", false, "Echo inputs for node types without a handler")
	cmd.Flags().String("mode", string(domain.ModeAutomatic), "Failure policy: manual, automatic, scheduled or event_driven")
	cmd.Flags().Duration("timeout", 0, "Limit for each node handler (0 means none)")
	cmd.Flags().String("store", cli.StoreMemory, "Run store: memory, file or redis")
	cmd.Flags().String("store-dir", "", "Directory of the file store (default .canvasflow/runs)")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address for the redis store")
	cmd.Flags().Int("redis-db", 0, "Redis database for the redis store")
	cmd.Flags().StringSlice("redact", nil, "Mask node output keys matching these patterns in stored runs")
}

func engineOptions(cmd *cobra.Command) (cli.EngineOptions, error) {
	flags := cmd.Flags()
	handlers, _ := flags.GetString("handlers")
	dryRun, _ := flags.GetBool("dry-run")
	modeName, _ := flags.GetString("mode")
	timeout, _ := flags.GetDuration("timeout")
	store, _ := flags.GetString("store")
	storeDir, _ := flags.GetString("store-dir")
	redisAddr, _ := flags.GetString("redis-addr")
	redisDB, _ := flags.GetInt("redis-db")
	redact, _ := flags.GetStringSlice("redact")

	mode, err := domain.ParseExecutionMode(modeName)
	if err != nil {
		return cli.EngineOptions{}, err
	}
	if timeout < 0 {
		return cli.EngineOptions{}, fmt.Errorf("negative timeout %s", timeout.Round(time.Millisecond))
	}

	return cli.EngineOptions{
		HandlersPath: handlers,
		DryRun:       dryRun,
		Mode:         mode,
		Timeout:      timeout,
		Store:        store,
		StoreDir:     storeDir,
		RedisAddr:    redisAddr,
		RedisDB:      redisDB,
		EncryptKey:   os.Getenv("CANVASFLOW_STORE_KEY"),
		Redact:       redact,
	}, nil
}
