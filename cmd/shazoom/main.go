// Command shazoom is the CLI entry point, rewritten onto
// github.com/spf13/cobra (grounded on zfogg-sidechain/backend's cobra
// usage) in place of Prayush09-MusicRecognition/main/main.go's hand-rolled
// os.Args switch. Two modes are exposed as subcommands per spec.md §6:
// ingest and identify.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"shazoom/internal/config"
	"shazoom/internal/logging"
)

func main() {
	_ = godotenv.Load() // optional .env, matching the teacher's Test/db_client_test.go loading convention

	logger := logging.New(slog.LevelInfo, os.Stderr)

	root := &cobra.Command{
		Use:   "shazoom",
		Short: "Audio fingerprint matcher",
	}

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")

	root.AddCommand(newIngestCmd(logger, &configPath))
	root.AddCommand(newIdentifyCmd(logger, &configPath))
	root.AddCommand(newRecordCmd(logger))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.App, error) {
	return config.Load(path)
}
