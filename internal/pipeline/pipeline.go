// Package pipeline runs one fetch, join and render pass over a date range.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jgoulah/energyplot/internal/chart"
	"github.com/jgoulah/energyplot/internal/config"
	"github.com/jgoulah/energyplot/internal/join"
	"github.com/jgoulah/energyplot/internal/octopus"
	"github.com/jgoulah/energyplot/pkg/models"
)

// Series names, used in join errors
const (
	seriesElectricity = "electricity"
	seriesGas         = "gas"
	seriesGasKWh      = "gas_kwh"
	seriesTemperature = "temperature"
)

// ConsumptionSource supplies meter readings
type ConsumptionSource interface {
	Consumption(ctx context.Context, fuel models.Fuel, meter octopus.Meter, from, to time.Time, interval octopus.Interval) ([]models.ConsumptionReading, error)
}

// WeatherSource supplies daily weather for an inclusive date range
type WeatherSource interface {
	Fetch(ctx context.Context, location string, from, to time.Time) ([]models.WeatherDay, error)
}

// Renderer draws charts and returns the written file path
type Renderer interface {
	TimeSeries(name string, axes chart.Axes, series ...chart.Series) (string, error)
	Scatter(name string, axes chart.Axes, series ...chart.Series) (string, error)
	Bars(name string, axes chart.Axes, labels []string, groups ...chart.BarGroup) (string, error)
}

// Pipeline wires the sources, joiner and renderer for one configuration
type Pipeline struct {
	cfg         *config.Config
	consumption ConsumptionSource
	weather     WeatherSource
	renderer    Renderer
}

// New creates a pipeline. weather and renderer may be nil when no run
// needs them.
func New(cfg *config.Config, consumption ConsumptionSource, weather WeatherSource, renderer Renderer) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		consumption: consumption,
		weather:     weather,
		renderer:    renderer,
	}
}

// Options selects the date range and charts for a run
type Options struct {
	From   time.Time // Inclusive calendar date
	To     time.Time // Inclusive calendar date
	Charts []Chart   // Empty means every chart
}

// Result lists the chart files written by a run
type Result struct {
	Files []string
}

// dataset holds the fetched series. Unfetched series are nil.
type dataset struct {
	electricity *join.Series
	gas         *join.Series
	gasKWh      *join.Series
	temperature *join.Series
}

// Run validates configuration, fetches what the charts need and renders
// each chart in order. The first error aborts the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	charts := opts.Charts
	if len(charts) == 0 {
		charts = AllCharts
	}
	for _, c := range charts {
		if _, ok := chartNeeds[c]; !ok {
			return Result{}, fmt.Errorf("unknown chart: %s", c)
		}
	}
	if p.renderer == nil {
		return Result{}, fmt.Errorf("no chart renderer configured")
	}

	needs := NeedsFor(charts)
	if err := p.cfg.Validate(needs); err != nil {
		return Result{}, err
	}

	split, hasSplit, err := p.cfg.GetSplitDate()
	if err != nil {
		return Result{}, err
	}
	for _, c := range charts {
		if c == GasVsTemperatureSplit && !hasSplit {
			return Result{}, &config.MissingFieldError{Fields: []string{"split_date"}}
		}
	}

	data, err := p.fetch(ctx, opts.From, opts.To, needs)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, c := range charts {
		path, err := p.render(c, data, split)
		if err != nil {
			return result, err
		}
		log.Info().Str("chart", string(c)).Str("path", path).Msg("chart rendered")
		result.Files = append(result.Files, path)
	}

	return result, nil
}

// Records returns the joined daily table for the selected series
func (p *Pipeline) Records(ctx context.Context, from, to time.Time, needs config.Needs) ([]models.DailyRecord, error) {
	if !needs.Electricity && !needs.Gas && !needs.Weather {
		return nil, fmt.Errorf("no series selected")
	}
	if err := p.cfg.Validate(needs); err != nil {
		return nil, err
	}

	data, err := p.fetch(ctx, from, to, needs)
	if err != nil {
		return nil, err
	}

	// Inner join everything fetched, driven by the first fuel present
	ordered := []*join.Series{data.electricity, data.gas, data.gasKWh, data.temperature}
	var present []*join.Series
	for _, s := range ordered {
		if s != nil {
			present = append(present, s)
		}
	}

	rows, err := join.Join(present[0], present[1:]...)
	if err != nil {
		return nil, err
	}

	records := make([]models.DailyRecord, len(rows))
	for i, row := range rows {
		rec := models.DailyRecord{Date: row.Date}
		for j, s := range present {
			v := row.Values[j]
			switch s.Name {
			case seriesElectricity:
				rec.Electricity = &v
			case seriesGas:
				rec.Gas = &v
			case seriesGasKWh:
				rec.GasKWh = &v
			case seriesTemperature:
				rec.Temperature = &v
			}
		}
		records[i] = rec
	}

	return records, nil
}

// fetch issues the remote calls sequentially: electricity, gas, then weather
func (p *Pipeline) fetch(ctx context.Context, from, to time.Time, needs config.Needs) (*dataset, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}

	loc, err := p.cfg.GetLocation()
	if err != nil {
		return nil, err
	}

	// The consumption window covers whole days in the reference timezone
	periodFrom := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	periodTo := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	data := &dataset{}

	if needs.Electricity {
		meter := octopus.Meter{PointID: p.cfg.ElectricityMPAN, Serial: p.cfg.ElectricitySerial}
		readings, err := p.consumption.Consumption(ctx, models.Electricity, meter, periodFrom, periodTo, octopus.Day)
		if err != nil {
			return nil, fmt.Errorf("fetching electricity consumption: %w", err)
		}
		log.Info().Int("readings", len(readings)).Msg("fetched electricity consumption")
		data.electricity = join.Daily(seriesElectricity, readings, loc)
	}

	if needs.Gas {
		meter := octopus.Meter{PointID: p.cfg.GasMPRN, Serial: p.cfg.GasSerial}
		readings, err := p.consumption.Consumption(ctx, models.Gas, meter, periodFrom, periodTo, octopus.Day)
		if err != nil {
			return nil, fmt.Errorf("fetching gas consumption: %w", err)
		}
		log.Info().Int("readings", len(readings)).Msg("fetched gas consumption")
		data.gas = join.Daily(seriesGas, readings, loc)

		if p.cfg.GetGasUnit() == models.GasUnitKWh {
			data.gasKWh = data.gas.Map(seriesGasKWh, func(v float64) float64 { return v })
		} else {
			data.gasKWh = data.gas.Map(seriesGasKWh, p.cfg.GetGasConversion().KWh)
		}
	}

	if needs.Weather {
		if p.weather == nil {
			return nil, fmt.Errorf("no weather source configured")
		}
		days, err := p.weather.Fetch(ctx, p.cfg.WeatherLocation, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetching weather: %w", err)
		}
		log.Info().Int("days", len(days)).Msg("fetched weather")
		data.temperature = join.Weather(seriesTemperature, days)
	}

	return data, nil
}
