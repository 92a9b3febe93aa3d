package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jgoulah/energyplot/internal/cache"
	"github.com/jgoulah/energyplot/internal/chart"
	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/internal/octopus"
	"github.com/jgoulah/energyplot/internal/pipeline"
	"github.com/jgoulah/energyplot/internal/weather"
)

var (
	cfgFile  string
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "energyplot",
	Short: "Chart Octopus Energy consumption against the weather",
	Long: `EnergyPlot pulls daily electricity and gas consumption from the Octopus Energy API,
joins it with historical temperatures from Visual Crossing, and renders PNG charts.
Weather responses are cached on disk so repeated runs only hit the API once per query.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOGLEVEL or info)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setupLogging configures the global zerolog logger
func setupLogging(cmd *cobra.Command, args []string) error {
	level := zerolog.InfoLevel

	switch {
	case verbose:
		level = zerolog.DebugLevel
	case logLevel != "":
		parsed, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		level = parsed
	default:
		// LOGLEVEL holds a numeric zerolog level
		if n, err := strconv.Atoi(os.Getenv("LOGLEVEL")); err == nil {
			level = zerolog.Level(n)
		}
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	return nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// newPipeline builds the pipeline with live API clients
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: timeout}

	octo := octopus.NewClient(httpClient, cfg.OctopusAPIKey, cfg.OctopusBaseURL)
	wc := weather.NewClient(httpClient, cfg.VisualCrossingKey, cfg.WeatherBaseURL, cache.New(cfg.GetCacheDir()))

	return pipeline.New(cfg, octo, wc, chart.NewRenderer(cfg.GetOutputDir())), nil
}
