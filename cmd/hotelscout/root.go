package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hotelscout/internal/config"
	"hotelscout/internal/folders"
	"hotelscout/internal/llm"
	"hotelscout/internal/logging"
	"hotelscout/internal/pipeline"
	"hotelscout/internal/service"
	"hotelscout/internal/source"
	"hotelscout/internal/store"
	"hotelscout/pkg/models"
)

var (
	flagDataDir    string
	flagProperties string
)

var rootCmd = &cobra.Command{
	Use:   "hotelscout",
	Short: "Hotel review aggregation and portfolio dashboard",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory (overrides DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagProperties, "properties", "", "Property list file (overrides PROPERTIES_FILE)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything a subcommand needs after bootstrap.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	svc    *service.Service
	props  []models.Property
}

// bootstrap loads config, the property list and wires the service graph.
// The credential is carried inside the config object and handed to the
// client here; nothing reads it from ambient state later.
func bootstrap() (*app, error) {
	logger := logging.New()
	cfg := config.Load()
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagProperties != "" {
		cfg.PropertiesFile = flagProperties
	}

	props, err := config.LoadProperties(cfg.PropertiesFile)
	if err != nil {
		return nil, err
	}

	fileStore, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	client := source.NewClient(cfg.SerpAPIBaseURL, cfg.SerpAPIKey, cfg.RateLimitDelay, cfg.RateLimitCooldown, nil)
	google := source.NewGoogleFetcher(client, logger)
	tripadvisor := source.NewTripadvisorFetcher(client, logger)

	var enricher folders.Enricher
	if cfg.LLMURL != "" {
		llmClient := llm.NewClient(cfg.LLMURL, cfg.LLMModel, nil)
		llmClient.SetLogger(logger.Debug)
		enricher = llmClient
	} else {
		logger.Warn("LLM_URL not set; enrichment endpoints are disabled")
	}

	var mirror folders.Mirror
	if cfg.MirrorEnabled() {
		mirror = folders.NewGitHubMirror(cfg.GitHubToken, cfg.GitHubMirrorRepo, cfg.GitHubMirrorPath, nil)
		logger.Info("folders mirror enabled: %s/%s", cfg.GitHubMirrorRepo, cfg.GitHubMirrorPath)
	}

	folderSvc := folders.NewService(fileStore, google, enricher, mirror, logger)
	runner := pipeline.NewRunner(fileStore, logger)
	svc := service.New(fileStore, runner, google, tripadvisor, google, folderSvc, props, logger)

	logger.Info("loaded %d properties from %s", len(props), cfg.PropertiesFile)
	return &app{cfg: cfg, logger: logger, svc: svc, props: props}, nil
}

func main() {
	Execute()
}
