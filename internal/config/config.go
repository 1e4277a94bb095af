package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Geocoder  GeocoderConfig
	Weather   WeatherConfig
	ImageHost ImageHostConfig
	Redis     RedisConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	Env     string
	AppName string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// GeocoderConfig holds geocoding service configuration.
// Viewport is the "bounds" parameter sent with every lookup so results
// are biased toward the city the app serves.
type GeocoderConfig struct {
	BaseURL   string
	APIKey    string
	Viewport  string
	Timeout   time.Duration
	CacheSize int
}

// WeatherConfig holds weather service configuration.
type WeatherConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ImageHostConfig holds image hosting service configuration.
type ImageHostConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// RedisConfig holds the connection settings for the job queue backend.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "Idlewatch")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "idlewatch")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "America/New_York")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("GEOCODER_URL", "https://maps.googleapis.com/maps/api/geocode/json")
	// Default viewport covers Philadelphia; lookups are biased toward it.
	v.SetDefault("GEOCODER_VIEWPORT", "39.867005,-75.280288|40.137910,-74.955766")
	v.SetDefault("GEOCODER_TIMEOUT", "5s")
	v.SetDefault("GEOCODER_CACHE_SIZE", 256)
	v.SetDefault("WEATHER_URL", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("WEATHER_TIMEOUT", "5s")
	v.SetDefault("IMGHOST_URL", "https://api.imgur.com/3")
	v.SetDefault("IMGHOST_TIMEOUT", "30s")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")

	// Bind environment variables
	v.AutomaticEnv()

	geocoderTimeout, err := time.ParseDuration(v.GetString("GEOCODER_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODER_TIMEOUT: %w", err)
	}
	weatherTimeout, err := time.ParseDuration(v.GetString("WEATHER_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_TIMEOUT: %w", err)
	}
	imghostTimeout, err := time.ParseDuration(v.GetString("IMGHOST_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMGHOST_TIMEOUT: %w", err)
	}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port:    v.GetString("PORT"),
			Env:     v.GetString("ENV"),
			AppName: v.GetString("APP_NAME"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Timezone: v.GetString("DB_TIMEZONE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   v.GetString("GEOCODER_URL"),
			APIKey:    v.GetString("GEOCODER_API_KEY"),
			Viewport:  v.GetString("GEOCODER_VIEWPORT"),
			Timeout:   geocoderTimeout,
			CacheSize: v.GetInt("GEOCODER_CACHE_SIZE"),
		},
		Weather: WeatherConfig{
			BaseURL: v.GetString("WEATHER_URL"),
			APIKey:  v.GetString("WEATHER_API_KEY"),
			Timeout: weatherTimeout,
		},
		ImageHost: ImageHostConfig{
			BaseURL:      v.GetString("IMGHOST_URL"),
			ClientID:     v.GetString("IMGHOST_CLIENT_ID"),
			ClientSecret: v.GetString("IMGHOST_CLIENT_SECRET"),
			Timeout:      imghostTimeout,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	// Validate adapter config
	if c.Geocoder.BaseURL == "" {
		return fmt.Errorf("GEOCODER_URL is required")
	}
	if c.Geocoder.Viewport == "" {
		return fmt.Errorf("GEOCODER_VIEWPORT is required")
	}
	if c.Geocoder.CacheSize < 1 {
		return fmt.Errorf("GEOCODER_CACHE_SIZE must be at least 1")
	}
	if c.Weather.BaseURL == "" {
		return fmt.Errorf("WEATHER_URL is required")
	}
	if c.ImageHost.BaseURL == "" {
		return fmt.Errorf("IMGHOST_URL is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.Redis.Port == "" {
		return fmt.Errorf("REDIS_PORT is required")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
