package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks a missing or invalid startup setting
var ErrConfiguration = errors.New("configuration error")

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	MailSMTP     = "smtp"
	MailPostmark = "postmark"
	MailFile     = "file"
)

type Config struct {
	AI         AIConfig         `yaml:"ai"`
	Email      EmailConfig      `yaml:"email"`
	Ideas      IdeasConfig      `yaml:"ideas"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule" env:"SCHEDULE"`
}

type AIConfig struct {
	Provider        string `yaml:"provider" env:"AI_PROVIDER"`
	AnthropicAPIKey string `yaml:"anthropic_api_key" env:"CLAUDE_API_KEY"`
	GeminiAPIKey    string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model           string `yaml:"model" env:"AI_MODEL"`
	MaxTokens       int    `yaml:"max_tokens" env:"AI_MAX_TOKENS"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS"`
}

type EmailConfig struct {
	Provider             string `yaml:"provider" env:"EMAIL_PROVIDER"`
	SMTPServer           string `yaml:"smtp_server" env:"SMTP_SERVER"`
	SMTPPort             int    `yaml:"smtp_port" env:"SMTP_PORT"`
	Username             string `yaml:"username" env:"GMAIL_ADDRESS"`
	Password             string `yaml:"password" env:"GMAIL_APP_PASSWORD"`
	FromEmail            string `yaml:"from_email" env:"EMAIL_FROM"`
	ToEmail              string `yaml:"to_email" env:"RECIPIENT_EMAIL"`
	PostmarkServerToken  string `yaml:"postmark_server_token" env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `yaml:"postmark_account_token" env:"POSTMARK_ACCOUNT_TOKEN"`
	OutboxDir            string `yaml:"outbox_dir" env:"EMAIL_OUTBOX_DIR"`
	TimeoutSeconds       int    `yaml:"timeout_seconds" env:"EMAIL_TIMEOUT_SECONDS"`
}

type IdeasConfig struct {
	Count  int      `yaml:"count" env:"IDEAS_COUNT"`
	Topics []string `yaml:"topics" env:"CONTENT_TOPICS" envSeparator:";"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port" env:"HEALTH_PORT"`
}

// Option overrides loaded values before defaults and validation are applied
type Option func(*Config)

// WithEmailProvider forces the mail transport regardless of file or environment
func WithEmailProvider(provider string) Option {
	return func(c *Config) {
		c.Email.Provider = provider
	}
}

// Load reads .env, the YAML config file and environment overrides, in that order.
// CONFIG_FILE selects the file; the default config.yaml is optional.
func Load(opts ...Option) (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = "config.yaml"
	}

	return LoadFile(configFile, explicit, opts...)
}

// LoadFile loads configuration from path. When required is false a missing file
// is treated as empty and only the environment is used.
func LoadFile(path string, required bool, opts ...Option) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderAnthropic
	}
	if c.AI.Model == "" {
		switch c.AI.Provider {
		case ProviderGemini:
			c.AI.Model = "gemini-2.5-flash"
		default:
			c.AI.Model = "claude-sonnet-4-5"
		}
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 4000
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 120
	}

	c.Email.Provider = strings.ToLower(strings.TrimSpace(c.Email.Provider))
	if c.Email.Provider == "" {
		c.Email.Provider = MailSMTP
	}
	if c.Email.SMTPServer == "" {
		c.Email.SMTPServer = "smtp.gmail.com"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 465
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = c.Email.Username
	}
	if c.Email.OutboxDir == "" {
		c.Email.OutboxDir = "outbox"
	}
	if c.Email.TimeoutSeconds <= 0 {
		c.Email.TimeoutSeconds = 30
	}

	if c.Ideas.Count <= 0 {
		c.Ideas.Count = 15
	}
	topics := c.Ideas.Topics[:0]
	for _, t := range c.Ideas.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	c.Ideas.Topics = topics

	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 9 * * 1" // Mondays at 9 AM
	}
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case ProviderAnthropic:
		if c.AI.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: Claude API key is required (set CLAUDE_API_KEY or ai.anthropic_api_key)", ErrConfiguration)
		}
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("%w: Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown AI provider %q (expected %q or %q)", ErrConfiguration, c.AI.Provider, ProviderAnthropic, ProviderGemini)
	}

	if c.Email.ToEmail == "" {
		return fmt.Errorf("%w: recipient email is required (set RECIPIENT_EMAIL or email.to_email)", ErrConfiguration)
	}

	switch c.Email.Provider {
	case MailSMTP:
		if c.Email.Username == "" {
			return fmt.Errorf("%w: email username is required (set GMAIL_ADDRESS or email.username)", ErrConfiguration)
		}
		if c.Email.Password == "" {
			return fmt.Errorf("%w: email password is required (set GMAIL_APP_PASSWORD or email.password)", ErrConfiguration)
		}
	case MailPostmark:
		if c.Email.PostmarkServerToken == "" || c.Email.PostmarkAccountToken == "" {
			return fmt.Errorf("%w: Postmark tokens are required (set POSTMARK_SERVER_TOKEN and POSTMARK_ACCOUNT_TOKEN)", ErrConfiguration)
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("%w: sender email is required (set EMAIL_FROM or email.from_email)", ErrConfiguration)
		}
	case MailFile:
	default:
		return fmt.Errorf("%w: unknown email provider %q", ErrConfiguration, c.Email.Provider)
	}

	return nil
}
