package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 5001
	defaultEnv      = "development"
	defaultDBHost   = "127.0.0.1"
	defaultDBPort   = 3306
	defaultDBUser   = "root"
	defaultDBName   = "littlenest"
	defaultCallTTL  = 2 * time.Minute
	defaultShareTTL = 5 * time.Minute
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	DSN            string         `yaml:"dsn"` // MySQL DSN; overrides Database when set
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
	TokenTTLHours  int            `yaml:"token_ttl_hours"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	S3             S3Options      `yaml:"s3"`
	Mail           MailOptions    `yaml:"mail"`
	Relay          RelayOptions   `yaml:"relay"`
}

// MailOptions configures outbound email for password resets and admin
// announcements. Disabled by default; sends become no-ops.
type MailOptions struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	UseResend bool   `yaml:"use_resend"`
	ResendKey string `yaml:"resend_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// S3Options configures the S3-compatible upload target.
type S3Options struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyleAccess bool   `yaml:"path_style_access"`
}

// RelayOptions tunes the realtime relay session-state registries.
type RelayOptions struct {
	CallTTL  time.Duration `yaml:"call_ttl"`
	ShareTTL time.Duration `yaml:"share_ttl"`
}

// Load reads the YAML config file, applies environment overrides and defaults.
// A missing file is not an error; env vars and defaults still apply.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	setStr := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				*dst = v
				return
			}
		}
	}
	setStr(&c.Env, "LN_ENV", "NODE_ENV")
	setStr(&c.DSN, "LN_DSN")
	setStr(&c.RedisURL, "LN_REDIS_URL", "REDIS_URL")
	setStr(&c.JWTSecret, "LN_JWT_SECRET", "JWT_SECRET")
	setStr(&c.S3.AccessKeyID, "LN_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	setStr(&c.S3.SecretAccessKey, "LN_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	setStr(&c.S3.Region, "LN_S3_REGION", "AWS_REGION")
	setStr(&c.S3.Bucket, "LN_S3_BUCKET")
	setStr(&c.Mail.Pass, "LN_MAIL_PASS")
	setStr(&c.Mail.ResendKey, "LN_RESEND_KEY", "RESEND_KEY")

	if v := strings.TrimSpace(os.Getenv("LN_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Port = port
		}
	}
}

func (c *AppConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = defaultPort
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = defaultEnv
	}
	if c.Database.Host == "" {
		c.Database.Host = defaultDBHost
	}
	if c.Database.Port <= 0 {
		c.Database.Port = defaultDBPort
	}
	if c.Database.User == "" {
		c.Database.User = defaultDBUser
	}
	if c.Database.Name == "" {
		c.Database.Name = defaultDBName
	}
	if strings.TrimSpace(c.DSN) == "" {
		c.DSN = c.Database.buildDSN()
	}
	if c.TokenTTLHours <= 0 {
		c.TokenTTLHours = 30 * 24
	}
	if c.Relay.CallTTL <= 0 {
		c.Relay.CallTTL = defaultCallTTL
	}
	if c.Relay.ShareTTL <= 0 {
		c.Relay.ShareTTL = defaultShareTTL
	}
}

func (d DatabaseConfig) buildDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development")
}

// TokenTTL returns the login token lifetime.
func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}
