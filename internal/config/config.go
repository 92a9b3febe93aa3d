package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // Reference timezones on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/jgoulah/energyplot/internal/join"
	"github.com/jgoulah/energyplot/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. ENERGYPLOT_OCTOPUS_API_KEY
const EnvPrefix = "ENERGYPLOT_"

// Config holds the application configuration
type Config struct {
	OctopusAPIKey     string `yaml:"octopus_api_key"`
	ElectricityMPAN   string `yaml:"electricity_mpan"`
	ElectricitySerial string `yaml:"electricity_serial"`
	GasMPRN           string `yaml:"gas_mprn"`
	GasSerial         string `yaml:"gas_serial"`
	VisualCrossingKey string `yaml:"visualcrossing_key"`

	WeatherLocation string `yaml:"weather_location,omitempty"` // e.g. "London,UK"
	Timezone        string `yaml:"timezone,omitempty"`         // Reference timezone for day keys (default: Europe/London)

	GasUnit                models.GasUnit `yaml:"gas_unit,omitempty"`                 // m3 (SMETS2) or kwh (SMETS1)
	CalorificValue         float64        `yaml:"calorific_value,omitempty"`          // MJ/m^3 (default: 38)
	VolumeCorrectionFactor float64        `yaml:"volume_correction_factor,omitempty"` // (default: 1.02264)

	From      string `yaml:"from,omitempty"`       // YYYY-MM-DD
	To        string `yaml:"to,omitempty"`         // YYYY-MM-DD
	SplitDate string `yaml:"split_date,omitempty"` // Cutoff for the split scatter

	OutputDir      string `yaml:"output_dir,omitempty"`
	CacheDir       string `yaml:"cache_dir,omitempty"`
	OctopusBaseURL string `yaml:"octopus_base_url,omitempty"`
	WeatherBaseURL string `yaml:"weather_base_url,omitempty"`
	RequestTimeout string `yaml:"request_timeout,omitempty"` // Go duration (default: 30s)

	MQTT MQTTConfig `yaml:"mqtt,omitempty"`
}

// MQTTConfig holds MQTT broker settings for publishing daily records
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// Needs describes which credentials a run requires
type Needs struct {
	Electricity bool
	Gas         bool
	Weather     bool
}

// MissingFieldError names every required setting that is empty
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required config: %s", strings.Join(e.Fields, ", "))
}

// Load reads the config file, then applies .env and environment overrides
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Run on defaults and environment alone
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg.applyEnv(os.LookupEnv)

	return cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Holds API keys
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

func (c *Config) secrets() map[string]*string {
	return map[string]*string{
		"octopus_api_key":    &c.OctopusAPIKey,
		"electricity_mpan":   &c.ElectricityMPAN,
		"electricity_serial": &c.ElectricitySerial,
		"gas_mprn":           &c.GasMPRN,
		"gas_serial":         &c.GasSerial,
		"visualcrossing_key": &c.VisualCrossingKey,
		"weather_location":   &c.WeatherLocation,
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for key, field := range c.secrets() {
		if v, ok := lookup(EnvPrefix + strings.ToUpper(key)); ok && v != "" {
			*field = v
		}
	}
}

// Validate checks that every credential the run needs is present. It must
// be called before any network request is made.
func (c *Config) Validate(needs Needs) error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	if needs.Electricity || needs.Gas {
		require("octopus_api_key", c.OctopusAPIKey)
	}
	if needs.Electricity {
		require("electricity_mpan", c.ElectricityMPAN)
		require("electricity_serial", c.ElectricitySerial)
	}
	if needs.Gas {
		require("gas_mprn", c.GasMPRN)
		require("gas_serial", c.GasSerial)
	}
	if needs.Weather {
		require("visualcrossing_key", c.VisualCrossingKey)
		require("weather_location", c.WeatherLocation)
	}

	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}

	if _, err := c.GetLocation(); err != nil {
		return err
	}
	switch c.GetGasUnit() {
	case models.GasUnitCubicMetres, models.GasUnitKWh:
	default:
		return fmt.Errorf("invalid gas_unit %q (use m3 or kwh)", c.GasUnit)
	}
	if _, err := c.GetRequestTimeout(); err != nil {
		return err
	}

	return nil
}

// GetLocation returns the reference timezone, defaulting to Europe/London
func (c *Config) GetLocation() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = "Europe/London"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// GetGasUnit returns the gas meter unit, defaulting to m3
func (c *Config) GetGasUnit() models.GasUnit {
	if c.GasUnit == "" {
		return models.GasUnitCubicMetres
	}
	return models.GasUnit(strings.ToLower(string(c.GasUnit)))
}

// GetGasConversion returns the configured conversion, filling in defaults
func (c *Config) GetGasConversion() join.GasConversion {
	conv := join.DefaultGasConversion
	if c.CalorificValue > 0 {
		conv.CalorificValue = c.CalorificValue
	}
	if c.VolumeCorrectionFactor > 0 {
		conv.VolumeCorrection = c.VolumeCorrectionFactor
	}
	return conv
}

// GetOutputDir returns the chart directory (default: output)
func (c *Config) GetOutputDir() string {
	if c.OutputDir == "" {
		return "output"
	}
	return c.OutputDir
}

// GetCacheDir returns the weather cache directory (default: cache)
func (c *Config) GetCacheDir() string {
	if c.CacheDir == "" {
		return "cache"
	}
	return c.CacheDir
}

// GetRequestTimeout returns the HTTP timeout (default: 30s)
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout: %w", err)
	}
	return d, nil
}

// GetSplitDate returns the split cutoff. ok is false when none is set.
func (c *Config) GetSplitDate() (time.Time, bool, error) {
	if c.SplitDate == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(models.DateLayout, c.SplitDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid split_date: %w", err)
	}
	return t, true, nil
}

// GetTopicPrefix returns the MQTT topic prefix (default: energyplot)
func (m MQTTConfig) GetTopicPrefix() string {
	if m.TopicPrefix == "" {
		return "energyplot"
	}
	return strings.TrimRight(m.TopicPrefix, "/")
}
