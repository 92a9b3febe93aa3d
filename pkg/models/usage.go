package models

import "time"

// DateLayout is the calendar-date key format shared by every series
const DateLayout = "2006-01-02"

// Fuel identifies which meter a reading came from
type Fuel string

const (
	Electricity Fuel = "electricity"
	Gas         Fuel = "gas"
)

// GasUnit is the unit a gas meter reports in. SMETS1 meters report a kWh
// equivalent, SMETS2 meters report volume.
type GasUnit string

const (
	GasUnitCubicMetres GasUnit = "m3"
	GasUnitKWh         GasUnit = "kwh"
)

// ConsumptionReading represents one interval's usage
type ConsumptionReading struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Quantity float64   `json:"quantity"` // kWh for electricity, m^3 or kWh for gas
}

// WeatherDay is the observed daily mean temperature for a calendar day
type WeatherDay struct {
	Date        time.Time `json:"date"` // Date only, local to the queried location
	Temperature float64   `json:"temperature"`
}

// Key returns the day as a yyyy-MM-dd string
func (w WeatherDay) Key() string {
	return w.Date.Format(DateLayout)
}

// DailyRecord is one joined day. Fields are nil when the series was not
// part of the join.
type DailyRecord struct {
	Date        string   `json:"date"`
	Gas         *float64 `json:"gas,omitempty"`
	GasKWh      *float64 `json:"gas_kwh,omitempty"`
	Electricity *float64 `json:"electricity_kwh,omitempty"`
	Temperature *float64 `json:"temperature_c,omitempty"`
}
