// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

// HandoverConfig carries the reconciliation policy knobs. RetainedCash is
// the till float kept back from the cash channel at every handover; the
// other channels never retain anything.
type HandoverConfig struct {
	RetainedCash string `yaml:"retained_cash"`
	// AuditCron schedules the nightly job that flags business days with
	// orders but no saved snapshot. Standard 5-field cron expression.
	AuditCron string `yaml:"audit_cron"`

	retainedCash decimal.Decimal
}

// RetainedCashAmount returns the parsed till-float amount.
func (h HandoverConfig) RetainedCashAmount() decimal.Decimal {
	return h.retainedCash
}

// EmailConfig configures the optional SES handover-summary notifier.
// Credentials come from the environment, never the YAML file.
type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	Recipient       string `yaml:"recipient"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

func (e EmailConfig) Enabled() bool {
	return e.Region != "" && e.Sender != "" && e.AccessKeyID != "" && e.SecretAccessKey != ""
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Handover HandoverConfig `yaml:"handover"`
	Email    EmailConfig    `yaml:"email"`
}

// DefaultRetainedCash is the till-float policy applied when the YAML file
// leaves retained_cash unset.
var DefaultRetainedCash = decimal.NewFromInt(320)

const defaultAuditCron = "30 2 * * *"

// Load loads both .env and yaml configuration.
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Sensitive values always come from the environment.
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Handover.RetainedCash == "" {
		c.Handover.retainedCash = DefaultRetainedCash
	}
	if c.Handover.AuditCron == "" {
		c.Handover.AuditCron = defaultAuditCron
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required for sqlite")
	}
	if c.Handover.RetainedCash != "" {
		retained, err := decimal.NewFromString(c.Handover.RetainedCash)
		if err != nil {
			return fmt.Errorf("invalid handover retained_cash %q: %w", c.Handover.RetainedCash, err)
		}
		if retained.IsNegative() {
			return fmt.Errorf("handover retained_cash must not be negative")
		}
		c.Handover.retainedCash = retained
	}
	if _, err := cron.ParseStandard(c.Handover.AuditCron); err != nil {
		return fmt.Errorf("invalid handover audit_cron %q: %w", c.Handover.AuditCron, err)
	}
	return nil
}
