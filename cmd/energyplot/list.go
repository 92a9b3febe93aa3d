package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/pkg/models"
)

var (
	listFrom        string
	listTo          string
	listWeather     bool
	listElectricity bool
	listGas         bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List joined daily usage",
	Long: `Fetches consumption for the date range and prints one row per day.
By default both fuels are listed. Every listed series must have a value for every day.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFrom, "from", "", "First day to list (YYYY-MM-DD or relative like 30d)")
	listCmd.Flags().StringVar(&listTo, "to", "", "Last day to list (YYYY-MM-DD or relative like 1d)")
	listCmd.Flags().BoolVar(&listWeather, "weather", false, "Include mean daily temperature")
	listCmd.Flags().BoolVar(&listElectricity, "electricity", false, "List electricity only (combine with --gas for both)")
	listCmd.Flags().BoolVar(&listGas, "gas", false, "List gas only (combine with --electricity for both)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	from, to, err := resolveRange(cfg, listFrom, listTo, time.Now())
	if err != nil {
		return err
	}

	needs := config.Needs{Electricity: listElectricity, Gas: listGas, Weather: listWeather}
	if !listElectricity && !listGas {
		needs.Electricity, needs.Gas = true, true
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	records, err := p.Records(cmd.Context(), from, to, needs)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No data found between %s and %s\n", from.Format(models.DateLayout), to.Format(models.DateLayout))
		return nil
	}

	printRecords(records, needs)
	return nil
}

func printRecords(records []models.DailyRecord, needs config.Needs) {
	header := fmt.Sprintf("%-12s", "Date")
	if needs.Electricity {
		header += fmt.Sprintf("  %12s", "Elec (kWh)")
	}
	if needs.Gas {
		header += fmt.Sprintf("  %10s  %10s", "Gas", "Gas (kWh)")
	}
	if needs.Weather {
		header += fmt.Sprintf("  %8s", "Temp (C)")
	}

	fmt.Println("----------------------------------------------------------------")
	fmt.Println(header)
	fmt.Println("----------------------------------------------------------------")

	var elecTotal, gasTotal, gasKWhTotal float64
	for _, r := range records {
		line := fmt.Sprintf("%-12s", r.Date)
		if needs.Electricity {
			line += fmt.Sprintf("  %12.2f", value(r.Electricity))
			elecTotal += value(r.Electricity)
		}
		if needs.Gas {
			line += fmt.Sprintf("  %10.2f  %10.2f", value(r.Gas), value(r.GasKWh))
			gasTotal += value(r.Gas)
			gasKWhTotal += value(r.GasKWh)
		}
		if needs.Weather {
			line += fmt.Sprintf("  %8.1f", value(r.Temperature))
		}
		fmt.Println(line)
	}

	fmt.Println("----------------------------------------------------------------")
	if needs.Electricity {
		fmt.Printf("Electricity total: %.2f kWh\n", elecTotal)
	}
	if needs.Gas {
		fmt.Printf("Gas total: %.2f (%.2f kWh)\n", gasTotal, gasKWhTotal)
	}
	fmt.Printf("%d days\n", len(records))
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
