package application

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/wind"
)

// Config carries the tunable alerting parameters. Defaults match the spot
// they were calibrated for; a YAML file named by ALERTS_CONFIG overrides
// them, and a few env vars override the YAML.
type Config struct {
	SpotName         string                    `yaml:"spot_name"`
	Thresholds       wind.Thresholds           `yaml:"thresholds"`
	Sustained        alerting.SustainedMinutes `yaml:"sustained_minutes"`
	CooldownMinutes  int                       `yaml:"cooldown_minutes"`
	CooldownLogDepth int                       `yaml:"cooldown_log_depth"`
	PollSeconds      int                       `yaml:"poll_seconds"`
}

// LoadConfig loads alerting config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		SpotName:         getenvDefault("SPOT_NAME", "La Bajada"),
		Thresholds:       wind.DefaultThresholds(),
		Sustained:        alerting.DefaultSustainedMinutes(),
		CooldownMinutes:  120,
		CooldownLogDepth: 5,
		PollSeconds:      30,
	}

	if path := os.Getenv("ALERTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := getenvIntDefault("ALERT_COOLDOWN_MINUTES", 0); v > 0 {
		cfg.CooldownMinutes = v
	}
	if v := getenvIntDefault("ALERT_POLL_SECONDS", 0); v > 0 {
		cfg.PollSeconds = v
	}
	if cfg.CooldownMinutes <= 0 {
		cfg.CooldownMinutes = 120
	}
	if cfg.CooldownLogDepth <= 0 {
		cfg.CooldownLogDepth = 5
	}
	if cfg.PollSeconds <= 0 {
		cfg.PollSeconds = 30
	}
	return cfg, nil
}

// CooldownWindow returns the cooldown as a duration.
func (c Config) CooldownWindow() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// PollInterval returns the poller tick interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
