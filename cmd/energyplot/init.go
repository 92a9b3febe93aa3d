package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/pkg/models"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Writes a config file with the default location, timezone and gas unit filled in.
Secrets are left empty. Set them in the file, in a .env file, or as ENERGYPLOT_* environment variables.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := &config.Config{
		WeatherLocation: "London,UK",
		Timezone:        "Europe/London",
		GasUnit:         models.GasUnitCubicMetres,
		OutputDir:       "output",
		CacheDir:        "cache",
		MQTT: config.MQTTConfig{
			Broker:      "localhost:1883",
			TopicPrefix: "energyplot",
		},
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Printf("✓ Wrote %s\n", path)
	return nil
}
