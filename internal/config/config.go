package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/llm-mail-ingest/")
	v.AddConfigPath("$HOME/.llm-mail-ingest")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_INGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults ("none" disables interpretation entirely)
	v.SetDefault("llm.provider", "gemini")

	// Gmail defaults
	v.SetDefault("gmail.query", `from:USPSInformedDelivery@usps.gov subject:"Informed Delivery Daily Digest" newer_than:60d`)
	v.SetDefault("gmail.max_results", 25)
	v.SetDefault("gmail.client_id", "")
	v.SetDefault("gmail.client_secret", "")
	v.SetDefault("gmail.access_token", "")
	v.SetDefault("gmail.refresh_token", "")

	// Ingest defaults
	v.SetDefault("ingest.user_id", "")
	v.SetDefault("ingest.interval", "1h")
	v.SetDefault("ingest.run_once", false)
	v.SetDefault("ingest.list_recent", 0)

	// Parser defaults. These track the current USPS digest template and are
	// deliberately configuration, not code: a template revision should only
	// require moving these values.
	v.SetDefault("parser.min_image_px", 50)
	v.SetDefault("parser.campaign_sender_id", "campaign-from-span-id")
	v.SetDefault("parser.denylist", []string{
		"logo", "icon", "facebook", "twitter", "x.com", "share", "dashboard",
		"banner", "footer", "header", "social", "eagle", "envelope", "pixel",
		"spacer",
	})
	v.SetDefault("parser.boilerplate_tokens", []string{
		"Learn", "Dashboard", "Expected", "Today", "Week", "Mail", "Package",
		"View", "Share", "Click", "Icon", "Button",
	})
	v.SetDefault("parser.today_markers", []string{"expected today", "arriving today"})
	v.SetDefault("parser.week_markers", []string{"expected this week", "coming this week"})
	v.SetDefault("parser.date_param_keys", []string{"date", "mailDate", "deliveryDate"})
	v.SetDefault("parser.date_day_id", "date-day-span-id")
	v.SetDefault("parser.date_month_id", "date-month-span-id")
	v.SetDefault("parser.date_year_id", "date-year-span-id")
	v.SetDefault("parser.accept_remote_images", true)

	// OCR defaults
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.page_seg_mode", 3)
	v.SetDefault("ocr.preprocess", true)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-2.5-flash")
	v.SetDefault("gemini.max_tokens", 600)
	v.SetDefault("gemini.temperature", 0.15)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 600)
	v.SetDefault("openai.temperature", 0.15)
	v.SetDefault("openai.top_p", 0.9)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 600)
	v.SetDefault("bedrock.temperature", 0.15)
	v.SetDefault("bedrock.top_p", 0.9)

	// Store defaults
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.sqlite_path", "/data/mail_ingest.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/mail_ingest")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
