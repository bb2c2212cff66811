// internal/alerts/config.go
package alerts

import (
	"time"

	appconfig "apartment-search/internal/common/config"
)

type Config struct {
	Timeout           time.Duration
	MinScore          float64
	HighScore         float64 // at or above this, the alert is high priority
	EmailEnabled      bool
	SMSEnabled        bool
	FromEmail         string
	PriorityThreshold string
	AWSRegion         string
}

func LoadConfig(cfg appconfig.AlertsConfig) *Config {
	return &Config{
		Timeout:           30 * time.Second,
		MinScore:          cfg.MinScore,
		HighScore:         90,
		EmailEnabled:      cfg.Email.Enabled,
		SMSEnabled:        cfg.SMS.Enabled,
		FromEmail:         cfg.Email.FromEmail,
		PriorityThreshold: cfg.SMS.PriorityThreshold,
		AWSRegion:         cfg.AWS.Region,
	}
}
