package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/internal/publisher"
	"github.com/jgoulah/energyplot/pkg/models"
)

var (
	publishFrom    string
	publishTo      string
	publishWeather bool
	publishLimit   int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish joined daily usage to MQTT",
	Long:  `Fetches consumption for the date range and publishes one retained message per day to the configured MQTT broker.`,
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishFrom, "from", "", "First day to publish (YYYY-MM-DD or relative like 7d)")
	publishCmd.Flags().StringVar(&publishTo, "to", "", "Last day to publish (YYYY-MM-DD or relative like 1d)")
	publishCmd.Flags().BoolVar(&publishWeather, "weather", false, "Include mean daily temperature in each message")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of records to publish (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT publishing is not enabled in config")
	}

	from, to, err := resolveRange(cfg, publishFrom, publishTo, time.Now())
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	needs := config.Needs{Electricity: true, Gas: true, Weather: publishWeather}
	records, err := p.Records(cmd.Context(), from, to, needs)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No data found between %s and %s\n", from.Format(models.DateLayout), to.Format(models.DateLayout))
		return nil
	}

	if publishLimit > 0 && len(records) > publishLimit {
		records = records[:publishLimit]
		fmt.Printf("Limiting to %d records (--limit flag)\n", publishLimit)
	}

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	fmt.Printf("Publishing %d records...\n", len(records))
	for i, record := range records {
		fmt.Printf("[%d/%d] Publishing %s to %s... ", i+1, len(records), record.Date, pub.Topic(record))
		if err := pub.Publish(record); err != nil {
			fmt.Printf("FAILED\n")
			return err
		}
		fmt.Printf("✓\n")
	}

	fmt.Printf("\nTotal records published: %d\n", len(records))
	return nil
}
