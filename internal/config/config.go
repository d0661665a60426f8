package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig          `yaml:"app"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Backup        BackupConfig       `yaml:"backup"`
	Monitoring    MonitoringConfig   `yaml:"monitoring"`
	Logging       LoggingConfig      `yaml:"logging"`
	API           APIConfig          `yaml:"api"`
	Notifications NotificationConfig `yaml:"notifications"`
	Storage       StorageConfig      `yaml:"storage"`
	Google        GoogleConfig       `yaml:"google"`
	Admin         AdminConfig        `yaml:"admin"`
	Cache         CacheConfig        `yaml:"cache"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig         `yaml:"cors"`
}

type APIHTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIAuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// LoginAttempts caps failed logins per identifier within LoginWindow.
	LoginAttempts int           `yaml:"login_attempts"`
	LoginWindow   time.Duration `yaml:"login_window"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type NotificationConfig struct {
	// Async defaults to true when omitted.
	Async          *bool          `yaml:"async"`
	Timeout        time.Duration  `yaml:"timeout"`
	Brand          string         `yaml:"brand"`
	SupportContact string         `yaml:"support_contact"`
	Staff          StaffContacts  `yaml:"staff"`
	Email          EmailConfig    `yaml:"email"`
	SMS            SMSConfig      `yaml:"sms"`
	WhatsApp       WhatsAppConfig `yaml:"whatsapp"`
	Telegram       TelegramConfig `yaml:"telegram"`
}

func (n NotificationConfig) IsAsync() bool {
	return n.Async == nil || *n.Async
}

type StaffContacts struct {
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	WhatsApp string `yaml:"whatsapp"`
}

type EmailConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	From    string `yaml:"from"`
}

type SMSConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
	BaseURL    string `yaml:"base_url"`
}

type WhatsAppConfig struct {
	AccessToken   string `yaml:"access_token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	BaseURL       string `yaml:"base_url"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
	// Console turns on the staff command bot; only ManagerIDs may use it.
	Console    bool    `yaml:"console"`
	ManagerIDs []int64 `yaml:"manager_ids"`
	// DigestTime is the local HH:MM at which tomorrow's bookings are posted to ChatID.
	DigestTime string `yaml:"digest_time"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type CacheConfig struct {
	CatalogTTL time.Duration `yaml:"catalog_ttl"`
	StatsTTL   time.Duration `yaml:"stats_ttl"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	PublicURL string `yaml:"public_url"`
	// LocalPath receives uploads when no bucket is configured.
	LocalPath string `yaml:"local_path"`
}

// Enabled reports whether object storage credentials are present.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
	SheetName             string `yaml:"sheet_name"`
}

type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; values already in the environment win.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.API.Auth.JWTSecret == "" {
		return errors.New("api.auth.jwt_secret is required")
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.API.Auth.TokenTTL <= 0 {
		return errors.New("api.auth.token_ttl must be positive")
	}
	if c.Notifications.Timeout <= 0 {
		return errors.New("notifications.timeout must be positive")
	}
	if c.Notifications.Telegram.BotToken != "" && c.Notifications.Telegram.ChatID == 0 {
		return errors.New("notifications.telegram.chat_id is required when bot_token is set")
	}
	if tg := c.Notifications.Telegram; tg.Console {
		if tg.BotToken == "" {
			return errors.New("notifications.telegram.console requires bot_token")
		}
		if len(tg.ManagerIDs) == 0 {
			return errors.New("notifications.telegram.manager_ids is required for the console")
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "homeservices"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 5000
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.Auth.TokenTTL == 0 {
		// production tokens live a week, everything else a month
		c.API.Auth.TokenTTL = 30 * 24 * time.Hour
		if c.App.IsProduction() {
			c.API.Auth.TokenTTL = 7 * 24 * time.Hour
		}
	}
	if c.API.Auth.LoginAttempts == 0 {
		c.API.Auth.LoginAttempts = 5
	}
	if c.API.Auth.LoginWindow == 0 {
		c.API.Auth.LoginWindow = 15 * time.Minute
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Notifications.Timeout == 0 {
		c.Notifications.Timeout = 10 * time.Second
	}
	if c.Notifications.Brand == "" {
		c.Notifications.Brand = "AX TEAM"
	}
	if c.Notifications.Email.BaseURL == "" {
		c.Notifications.Email.BaseURL = "https://api.resend.com"
	}
	if c.Notifications.SMS.BaseURL == "" {
		c.Notifications.SMS.BaseURL = "https://api.twilio.com"
	}
	if c.Notifications.WhatsApp.BaseURL == "" {
		c.Notifications.WhatsApp.BaseURL = "https://graph.facebook.com/v18.0"
	}
	if c.Cache.CatalogTTL == 0 {
		c.Cache.CatalogTTL = 5 * time.Minute
	}
	if c.Cache.StatsTTL == 0 {
		c.Cache.StatsTTL = time.Minute
	}
	if c.Storage.LocalPath == "" {
		c.Storage.LocalPath = "uploads"
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = "Bookings"
	}
	if c.Admin.Email == "" {
		c.Admin.Email = "admin@axteam.com"
	}
	if c.Admin.Password == "" {
		c.Admin.Password = "admin123"
	}
	if c.Admin.Name == "" {
		c.Admin.Name = "Administrator"
	}
	if c.Admin.Phone == "" {
		c.Admin.Phone = "+919876543210"
	}
	if c.Notifications.SupportContact == "" {
		c.Notifications.SupportContact = c.Admin.Phone
	}
}
