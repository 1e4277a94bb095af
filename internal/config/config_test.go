package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "Idlewatch", cfg.Server.AppName)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "idlewatch", cfg.Database.Name)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.CORS.Origins)
	assert.Equal(t, "39.867005,-75.280288|40.137910,-74.955766", cfg.Geocoder.Viewport)
	assert.Equal(t, 5*time.Second, cfg.Geocoder.Timeout)
	assert.Equal(t, 256, cfg.Geocoder.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.ImageHost.Timeout)
	assert.Equal(t, "6379", cfg.Redis.Port)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("GEOCODER_TIMEOUT", "10s")
	t.Setenv("CORS_ORIGINS", "https://idlewatch.example , https://admin.idlewatch.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, 10*time.Second, cfg.Geocoder.Timeout)
	assert.Equal(t, []string{"https://idlewatch.example", "https://admin.idlewatch.example"}, cfg.CORS.Origins)
}

func TestLoadRequiresDatabasePassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("WEATHER_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_TIMEOUT")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Host: "localhost", Port: "5432", Name: "idlewatch", User: "postgres", Password: "secret"},
			CORS:     CORSConfig{Origins: []string{"http://localhost:3000"}},
			Geocoder: GeocoderConfig{BaseURL: "https://geo.example", Viewport: "1,2|3,4", CacheSize: 16},
			Weather:  WeatherConfig{BaseURL: "https://weather.example"},
			ImageHost: ImageHostConfig{
				BaseURL: "https://images.example",
			},
			Redis: RedisConfig{Host: "localhost", Port: "6379"},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"missing db password", func(c *Config) { c.Database.Password = "" }},
		{"no cors origins", func(c *Config) { c.CORS.Origins = nil }},
		{"missing geocoder url", func(c *Config) { c.Geocoder.BaseURL = "" }},
		{"missing viewport", func(c *Config) { c.Geocoder.Viewport = "" }},
		{"zero cache size", func(c *Config) { c.Geocoder.CacheSize = 0 }},
		{"missing weather url", func(c *Config) { c.Weather.BaseURL = "" }},
		{"missing image host url", func(c *Config) { c.ImageHost.BaseURL = "" }},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseOrigins("a, b"))
	assert.Equal(t, []string{"a"}, parseOrigins("a,,"))
	assert.Empty(t, parseOrigins(""))
}
