package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/energyplot/internal/pipeline"
	"github.com/jgoulah/energyplot/pkg/models"
)

var (
	chartFrom string
	chartTo   string
)

var chartCmd = &cobra.Command{
	Use:   "chart [names...]",
	Short: "Render consumption and weather charts",
	Long: `Fetches consumption and weather for the date range and renders PNG charts into the output directory.
With no names every chart is rendered. Available charts: ` + chartNames() + `.`,
	RunE: runChart,
}

func init() {
	chartCmd.Flags().StringVar(&chartFrom, "from", "", "First day to chart (YYYY-MM-DD or relative like 30d)")
	chartCmd.Flags().StringVar(&chartTo, "to", "", "Last day to chart (YYYY-MM-DD or relative like 1d)")
	rootCmd.AddCommand(chartCmd)
}

func chartNames() string {
	names := make([]string, len(pipeline.AllCharts))
	for i, c := range pipeline.AllCharts {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func runChart(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Chart started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	charts, err := pipeline.ParseCharts(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	from, to, err := resolveRange(cfg, chartFrom, chartTo, time.Now())
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Charting %s to %s...\n", from.Format(models.DateLayout), to.Format(models.DateLayout))
	result, err := p.Run(cmd.Context(), pipeline.Options{From: from, To: to, Charts: charts})
	for _, path := range result.Files {
		fmt.Printf("✓ %s\n", path)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nTotal charts written: %d\n", len(result.Files))
	return nil
}
