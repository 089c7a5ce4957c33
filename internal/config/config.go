package config

import (
	"errors"
	"fmt"
	"os"
	"project-portal/internal/domain"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"   mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Network  NetworkConfig  `yaml:"network"  mapstructure:"network"`
	Status   StatusConfig   `yaml:"status"   mapstructure:"status"`
	Probe    ProbeConfig    `yaml:"probe"    mapstructure:"probe"`
	Scanner  ScannerConfig  `yaml:"scanner"  mapstructure:"scanner"`
	Rescan   RescanConfig   `yaml:"rescan"   mapstructure:"rescan"`
	Proxy    ProxyConfig    `yaml:"proxy"    mapstructure:"proxy"`
	Logging  LoggingConfig  `yaml:"logging"  mapstructure:"logging"`
}

// ServerConfig represents HTTP listener settings
type ServerConfig struct {
	Host        string   `yaml:"host"         mapstructure:"host"`
	Port        int      `yaml:"port"         mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// DatabaseConfig represents the SQLite store location
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// NetworkConfig represents the addresses and flags used to derive URL variants
type NetworkConfig struct {
	LANIP         string `yaml:"lan_ip"         mapstructure:"lan_ip"`
	VPNIP         string `yaml:"vpn_ip"         mapstructure:"vpn_ip"`
	ShowLocalhost bool   `yaml:"show_localhost" mapstructure:"show_localhost"`
	ShowLAN       bool   `yaml:"show_lan"       mapstructure:"show_lan"`
	ShowVPN       bool   `yaml:"show_vpn"       mapstructure:"show_vpn"`
}

// StatusConfig represents status presentation settings
type StatusConfig struct {
	ShowOffline     bool     `yaml:"show_offline"     mapstructure:"show_offline"`
	PrimaryNetworks []string `yaml:"primary_networks" mapstructure:"primary_networks"`
}

// ProbeConfig represents reachability probe settings
type ProbeConfig struct {
	DefaultHost string `yaml:"default_host" mapstructure:"default_host"`
	TimeoutMS   int    `yaml:"timeout_ms"   mapstructure:"timeout_ms"`
	CacheTTLMS  int    `yaml:"cache_ttl_ms" mapstructure:"cache_ttl_ms"`
}

// ScannerConfig represents project scanner settings
type ScannerConfig struct {
	DefaultPort            int  `yaml:"default_port"             mapstructure:"default_port"`
	ProcessManagerOverride bool `yaml:"process_manager_override" mapstructure:"process_manager_override"`
	Workers                int  `yaml:"workers"                  mapstructure:"workers"`
}

// RescanConfig represents rescan settings
type RescanConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ProxyConfig represents reverse proxy settings
type ProxyConfig struct {
	UpstreamHost string `yaml:"upstream_host" mapstructure:"upstream_host"`
}

// LoggingConfig represents log level and optional rotated file output
type LoggingConfig struct {
	Level      string `yaml:"level"        mapstructure:"level"`
	File       string `yaml:"file"         mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"  mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"  mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// Address returns the listen address
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ProbeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c ProbeConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// Networks returns the primary network order as domain values
func (c StatusConfig) Networks() []domain.Network {
	networks := make([]domain.Network, 0, len(c.PrimaryNetworks))
	for _, n := range c.PrimaryNetworks {
		networks = append(networks, domain.Network(strings.ToLower(strings.TrimSpace(n))))
	}
	return networks
}

// LoadDotEnv loads variables from an env file; a missing file is not an error
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from an optional file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Create a new Viper instance to avoid data races in concurrent tests
	v := viper.New()

	if configPath != "" {
		// Check if config file exists
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
	}

	// Set default values
	setDefaultValues(v)

	// Enable reading from environment variables
	v.AutomaticEnv()

	// Set environment variable key replacer for nested config
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	_ = v.BindEnv("server.host", "HOST")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("database.path", "DB_PATH")
	_ = v.BindEnv("network.lan_ip", "SERVER_LAN_IP")
	_ = v.BindEnv("network.vpn_ip", "SERVER_VPN_IP")
	_ = v.BindEnv("network.show_localhost", "SHOW_LOCALHOST_URLS")
	_ = v.BindEnv("network.show_lan", "SHOW_LAN_URLS")
	_ = v.BindEnv("network.show_vpn", "SHOW_VPN_URLS")
	_ = v.BindEnv("status.show_offline", "SHOW_OFFLINE_PROJECTS")
	_ = v.BindEnv("probe.default_host", "DEFAULT_HOST")
	_ = v.BindEnv("probe.timeout_ms", "PORT_CHECK_TIMEOUT")
	_ = v.BindEnv("probe.cache_ttl_ms", "PORT_STATUS_CACHE_TTL")
	_ = v.BindEnv("scanner.default_port", "DEFAULT_PROJECT_PORT")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.file", "LOG_FILE")

	if configPath != "" {
		// Read config file
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaultValues sets default configuration values
func setDefaultValues(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9343)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.path", "portal.db")

	// Network defaults
	v.SetDefault("network.lan_ip", "")
	v.SetDefault("network.vpn_ip", "")
	v.SetDefault("network.show_localhost", true)
	v.SetDefault("network.show_lan", true)
	v.SetDefault("network.show_vpn", true)

	// Status defaults
	v.SetDefault("status.show_offline", true)
	v.SetDefault("status.primary_networks", []string{"lan", "vpn", "localhost", "external"})

	// Probe defaults
	v.SetDefault("probe.default_host", "localhost")
	v.SetDefault("probe.timeout_ms", 1000)
	v.SetDefault("probe.cache_ttl_ms", 5000)

	// Scanner defaults
	v.SetDefault("scanner.default_port", 3000)
	v.SetDefault("scanner.process_manager_override", true)
	v.SetDefault("scanner.workers", 4)

	// Rescan defaults
	v.SetDefault("rescan.workers", 4)

	// Proxy defaults
	v.SetDefault("proxy.upstream_host", "localhost")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// validateConfig validates the configuration
func validateConfig(config Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", config.Server.Port)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if config.Probe.TimeoutMS <= 0 {
		return fmt.Errorf("probe.timeout_ms must be positive")
	}

	if config.Probe.CacheTTLMS < 0 {
		return fmt.Errorf("probe.cache_ttl_ms must not be negative")
	}

	if config.Scanner.DefaultPort <= 0 || config.Scanner.DefaultPort > 65535 {
		return fmt.Errorf("scanner.default_port must be between 1 and 65535, got %d", config.Scanner.DefaultPort)
	}

	if config.Scanner.Workers <= 0 {
		return fmt.Errorf("scanner.workers must be positive")
	}

	if config.Rescan.Workers <= 0 {
		return fmt.Errorf("rescan.workers must be positive")
	}

	if config.Proxy.UpstreamHost == "" {
		return fmt.Errorf("proxy.upstream_host is required")
	}

	for _, origin := range config.Server.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("server.cors_origins entry %q must be \"*\" or start with http:// or https://", origin)
		}
	}

	// Validate network order
	for i, network := range config.Status.Networks() {
		if !domain.ValidNetwork(network) {
			return fmt.Errorf("status.primary_networks[%d] has unknown network %q", i, config.Status.PrimaryNetworks[i])
		}
	}

	return nil
}
