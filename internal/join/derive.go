package join

import (
	"fmt"
	"time"

	"github.com/jgoulah/energyplot/pkg/models"
)

// MJ per kWh
const megajoulesPerKWh = 3.6

// GasConversion converts metered gas volume to energy
type GasConversion struct {
	CalorificValue   float64 // MJ/m^3
	VolumeCorrection float64
}

// DefaultGasConversion uses a generic UK calorific value. Bills quote the
// exact figure for the supply, which should be preferred when known.
var DefaultGasConversion = GasConversion{
	CalorificValue:   38,
	VolumeCorrection: 1.02264,
}

// KWh converts m^3 to kWh
func (g GasConversion) KWh(m3 float64) float64 {
	return m3 * g.CalorificValue * g.VolumeCorrection / megajoulesPerKWh
}

// WeekdayMeans holds the mean value for each weekday, Monday first
type WeekdayMeans struct {
	Labels [7]string
	Means  [7]float64
	Counts [7]int
}

// ByWeekday averages column col of rows by the weekday of each row's date
func ByWeekday(rows []Row, col int) (WeekdayMeans, error) {
	var out WeekdayMeans
	var sums [7]float64

	for i := range out.Labels {
		out.Labels[i] = time.Weekday((i + 1) % 7).String()[:3]
	}

	for _, r := range rows {
		d, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return WeekdayMeans{}, fmt.Errorf("parsing day %q: %w", r.Date, err)
		}
		idx := (int(d.Weekday()) + 6) % 7
		sums[idx] += r.Values[col]
		out.Counts[idx]++
	}

	for i := range sums {
		if out.Counts[i] > 0 {
			out.Means[i] = sums[i] / float64(out.Counts[i])
		}
	}

	return out, nil
}
