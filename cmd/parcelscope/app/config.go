package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Output  string

	// Config file
	ConfigFile string

	// Engine configuration
	ProviderConfig  string
	CacheGeneralTTL time.Duration
	CacheAddressTTL time.Duration
	HTTPTimeout     time.Duration
	TopN            int

	// Server configuration
	Host        string
	Port        int
	PathPrefix  string
	RateLimit   int
	CORSEnabled bool
	CORSOrigins []string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.parcelscope.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	// Set up Viper for environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Bind provider credential variables
	bindCredentialKeys()

	// Try to read config file if it exists
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Search for config in standard locations
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".parcelscope")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Output:  viper.GetString("output"),

		ConfigFile: viper.ConfigFileUsed(),

		ProviderConfig:  viper.GetString("provider_config"),
		CacheGeneralTTL: viper.GetDuration("cache_general_ttl"),
		CacheAddressTTL: viper.GetDuration("cache_address_ttl"),
		HTTPTimeout:     viper.GetDuration("http_timeout"),
		TopN:            viper.GetInt("enrich_top_n"),

		Host:        viper.GetString("http_host"),
		Port:        viper.GetInt("http_port"),
		PathPrefix:  viper.GetString("path_prefix"),
		RateLimit:   viper.GetInt("rate_limit"),
		CORSEnabled: viper.GetBool("cors_enabled"),
		CORSOrigins: viper.GetStringSlice("cors_origins"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, output, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if output != "" {
		c.Output = output
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindCredentialKeys explicitly binds provider credential environment
// variables to Viper so .env values are visible through it.
func bindCredentialKeys() {
	keys := []string{
		"LIGHTBOX_CLIENT_ID",
		"LIGHTBOX_CLIENT_SECRET",
		"REPLIERS_API_KEY",
	}

	for _, key := range keys {
		_ = viper.BindEnv(key)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
