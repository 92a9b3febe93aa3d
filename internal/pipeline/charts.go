package pipeline

import (
	"fmt"
	"time"

	"github.com/jgoulah/energyplot/internal/chart"
	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/internal/join"
	"github.com/jgoulah/energyplot/pkg/models"
)

// Chart names a chart kind. The name is also the output file stem.
type Chart string

const (
	GasUsage              Chart = "gas-usage"
	ElectricityUsage      Chart = "electric-usage"
	GasVsTemperature      Chart = "gas-vs-temperature"
	GasVsTemperatureSplit Chart = "gas-vs-temperature-split"
	EnergyVsTemperature   Chart = "energy-vs-temperature"
	WeekdayUsage          Chart = "weekday-usage"
)

// AllCharts is every chart, in render order
var AllCharts = []Chart{
	GasUsage,
	ElectricityUsage,
	GasVsTemperature,
	GasVsTemperatureSplit,
	EnergyVsTemperature,
	WeekdayUsage,
}

var chartNeeds = map[Chart]config.Needs{
	GasUsage:              {Gas: true},
	ElectricityUsage:      {Electricity: true},
	GasVsTemperature:      {Gas: true, Weather: true},
	GasVsTemperatureSplit: {Gas: true, Weather: true},
	EnergyVsTemperature:   {Gas: true, Electricity: true, Weather: true},
	WeekdayUsage:          {Gas: true, Electricity: true},
}

const temperatureLabel = "Mean temperature (°C)"

// ParseCharts validates chart names
func ParseCharts(names []string) ([]Chart, error) {
	charts := make([]Chart, 0, len(names))
	for _, n := range names {
		c := Chart(n)
		if _, ok := chartNeeds[c]; !ok {
			return nil, fmt.Errorf("unknown chart: %s", n)
		}
		charts = append(charts, c)
	}
	return charts, nil
}

// NeedsFor returns the union of the series the charts require
func NeedsFor(charts []Chart) config.Needs {
	var needs config.Needs
	for _, c := range charts {
		n := chartNeeds[c]
		needs.Electricity = needs.Electricity || n.Electricity
		needs.Gas = needs.Gas || n.Gas
		needs.Weather = needs.Weather || n.Weather
	}
	return needs
}

func (p *Pipeline) gasUnitLabel() string {
	if p.cfg.GetGasUnit() == models.GasUnitKWh {
		return "kWh"
	}
	return "m^3"
}

func (p *Pipeline) render(c Chart, data *dataset, split time.Time) (string, error) {
	name := string(c)

	switch c {
	case GasUsage:
		pts, err := join.TimePoints(join.SeriesRows(data.gas), 0)
		if err != nil {
			return "", err
		}
		axes := chart.Axes{
			Title:  "Gas usage",
			XLabel: "Date",
			YLabel: fmt.Sprintf("Consumption (%s)", p.gasUnitLabel()),
		}
		if p.cfg.GetGasUnit() == models.GasUnitCubicMetres {
			axes.YMax = 12.5
		}
		return p.renderer.TimeSeries(name, axes, chart.Series{Label: seriesGas, Points: pts})

	case ElectricityUsage:
		pts, err := join.TimePoints(join.SeriesRows(data.electricity), 0)
		if err != nil {
			return "", err
		}
		return p.renderer.TimeSeries(name, chart.Axes{
			Title:  "Electricity usage",
			XLabel: "Date",
			YLabel: "Consumption (kWh)",
			YMax:   25,
		}, chart.Series{Label: seriesElectricity, Points: pts})

	case GasVsTemperature:
		rows, err := join.Join(data.gas, data.temperature)
		if err != nil {
			return "", err
		}
		return p.renderer.Scatter(name, chart.Axes{
			Title:  "Gas usage vs temperature",
			XLabel: temperatureLabel,
			YLabel: fmt.Sprintf("Gas consumption (%s)", p.gasUnitLabel()),
		}, chart.Series{Label: seriesGas, Points: join.Points(rows, 1, 0)})

	case GasVsTemperatureSplit:
		rows, err := join.Join(data.gas, data.temperature)
		if err != nil {
			return "", err
		}
		before, after := join.Split(rows, split)
		day := split.Format(models.DateLayout)
		return p.renderer.Scatter(name, chart.Axes{
			Title:  "Gas usage vs temperature, split on " + day,
			XLabel: temperatureLabel,
			YLabel: fmt.Sprintf("Gas consumption (%s)", p.gasUnitLabel()),
		},
			chart.Series{Label: "Before " + day, Points: join.Points(before, 1, 0)},
			chart.Series{Label: "From " + day, Points: join.Points(after, 1, 0)},
		)

	case EnergyVsTemperature:
		rows, err := join.Join(data.gasKWh, data.electricity, data.temperature)
		if err != nil {
			return "", err
		}
		pts := make([]join.XY, len(rows))
		for i, r := range rows {
			pts[i] = join.XY{X: r.Values[2], Y: r.Values[0] + r.Values[1]}
		}
		return p.renderer.Scatter(name, chart.Axes{
			Title:  "Total energy vs temperature",
			XLabel: temperatureLabel,
			YLabel: "Gas + electricity (kWh)",
		}, chart.Series{Label: "energy", Points: pts})

	case WeekdayUsage:
		rows, err := join.Join(data.electricity, data.gasKWh)
		if err != nil {
			return "", err
		}
		elec, err := join.ByWeekday(rows, 0)
		if err != nil {
			return "", err
		}
		gas, err := join.ByWeekday(rows, 1)
		if err != nil {
			return "", err
		}
		return p.renderer.Bars(name, chart.Axes{
			Title:  "Mean daily usage by weekday",
			YLabel: "Energy (kWh/day)",
		}, elec.Labels[:],
			chart.BarGroup{Label: "Electricity", Values: elec.Means[:]},
			chart.BarGroup{Label: "Gas", Values: gas.Means[:]},
		)
	}

	return "", fmt.Errorf("unknown chart: %s", c)
}
