package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Env          string        `mapstructure:"env"`
	APIBaseURL   string        `mapstructure:"api_base_url"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	DatabaseType string        `mapstructure:"database_type"` // sqlite, postgres or mysql
	DatabaseURL  string        `mapstructure:"-"`             // DSN for postgres/mysql, loaded from environment
	DatabasePath string        `mapstructure:"database_path"` // file path for sqlite
	AudioFormat  string        `mapstructure:"audio_format"`  // ffmpeg input format (alsa, avfoundation, ...)
	AudioDevice  string        `mapstructure:"audio_device"`  // ffmpeg input device name
	MinVoiceSize int           `mapstructure:"min_voice_size"`
}

// Load reads configuration from an optional config file and environment
// variables with sensible defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("database_type", "sqlite")
	v.SetDefault("database_path", "./interviewcoach.db")
	v.SetDefault("audio_format", defaultAudioFormat())
	v.SetDefault("audio_device", defaultAudioDevice())
	v.SetDefault("min_voice_size", 5000)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("api_base_url", "API_BASE_URL")
	_ = v.BindEnv("database_type", "DATABASE_TYPE")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("database_path", "DATABASE_PATH")
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DatabaseURL = v.GetString("database_url")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}

	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			return fmt.Errorf("database_path is required for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for database type %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	if c.MinVoiceSize < 0 {
		return fmt.Errorf("min_voice_size cannot be negative")
	}

	return nil
}

// defaultAudioFormat picks the ffmpeg capture format for the host platform
func defaultAudioFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "alsa"
	}
}

// defaultAudioDevice picks the default microphone device name for the
// platform's capture format
func defaultAudioDevice() string {
	switch runtime.GOOS {
	case "darwin":
		return ":0"
	case "windows":
		return "audio=default"
	default:
		return "default"
	}
}
