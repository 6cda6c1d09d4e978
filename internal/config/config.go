// Package config loads and validates application configuration.
//
// Loading is layered, highest priority last:
//  1. Built-in defaults
//  2. Optional YAML settings file (settings.yaml, /etc/boatserver/settings.yaml,
//     or the path in CONFIG_PATH)
//  3. Environment variables prefixed with BOATSERVER_
//     (BOATSERVER_REMOTE_API_KEY -> remote.api_key)
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces every environment variable this process reads.
const envPrefix = "BOATSERVER_"

// ConfigPathEnvVar overrides the settings file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfigPaths lists where the settings file is searched, in order.
var defaultConfigPaths = []string{
	"settings.yaml",
	"/etc/boatserver/settings.yaml",
}

// Config holds all configuration for the mirror process. It is immutable
// after Load and passed by reference into every component; there is no
// ambient global configuration state.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Remote  RemoteConfig  `koanf:"remote"`
	Mirror  MirrorConfig  `koanf:"mirror"`
	Sync    SyncConfig    `koanf:"sync"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig configures the local HTTP serving layer.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	// CORSOrigins is the list of allowed cross-origin request origins.
	// From the environment, supply a comma-separated list.
	CORSOrigins []string `koanf:"cors_origins"`
	// MaxTelemetryBody caps the accepted POST /telemetry body in bytes.
	MaxTelemetryBody int64 `koanf:"max_telemetry_body"`
}

// RemoteConfig describes the provider the mirror synchronizes from.
type RemoteConfig struct {
	Protocol     string        `koanf:"protocol"`
	Host         string        `koanf:"host"`
	APIKey       string        `koanf:"api_key"`
	TripsURI     string        `koanf:"trips_uri"`
	WalletURI    string        `koanf:"wallet_uri"`
	TelemetryURI string        `koanf:"telemetry_uri"`
	// Timeout bounds every single remote request. Zero disables the
	// client-side deadline (the reference behaviour, where a hung remote
	// call stalls the whole run).
	Timeout time.Duration `koanf:"timeout"`
}

// TripsURL returns the absolute trip listing endpoint.
func (r RemoteConfig) TripsURL() string {
	return fmt.Sprintf("%s://%s/%s", r.Protocol, r.Host, r.TripsURI)
}

// WalletURL returns the absolute wallet lookup endpoint.
func (r RemoteConfig) WalletURL() string {
	return fmt.Sprintf("%s://%s/%s", r.Protocol, r.Host, r.WalletURI)
}

// TelemetryURL returns the absolute telemetry collection endpoint.
func (r RemoteConfig) TelemetryURL() string {
	return fmt.Sprintf("%s://%s/%s", r.Protocol, r.Host, r.TelemetryURI)
}

// MirrorConfig describes how mirrored content is stored and addressed.
type MirrorConfig struct {
	// LocalHost is the hostname embedded into rewritten asset URLs.
	LocalHost string `koanf:"local_host"`
	// LocalPort is appended to rewritten URLs when it is a non-default port.
	LocalPort int `koanf:"local_port"`
	// PublicRoot is the content root the serving layer exposes.
	PublicRoot string `koanf:"public_root"`
}

// SyncConfig tunes the synchronization engine.
type SyncConfig struct {
	// Interval between synchronization runs.
	Interval time.Duration `koanf:"interval"`
	// ReferenceFilter, when set, keeps only trips whose reference starts
	// with this prefix. Applied after pagination completes.
	ReferenceFilter string `koanf:"reference_filter"`
	// ClientReference prefixes the deterministic guest tokens minted for
	// orphan guides.
	ClientReference string `koanf:"client_reference"`
	// GuestUsername is the fixed username on synthesized guest bookings.
	GuestUsername string `koanf:"guest_username"`
	// DeviceUUID identifies this mirror to the wallet endpoint.
	DeviceUUID string `koanf:"device_uuid"`
	// ClientVersion is the protocol version sent to the wallet endpoint.
	ClientVersion string `koanf:"client_version"`
	// TelemetrySpool is the local file collected client telemetry is
	// appended to between deliveries.
	TelemetrySpool string `koanf:"telemetry_spool"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "text".
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      10 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      60 * time.Second,
			CORSOrigins:      []string{"*"},
			MaxTelemetryBody: 1 << 20, // 1MB
		},
		Remote: RemoteConfig{
			Protocol:     "https",
			TripsURI:     "api/trips",
			WalletURI:    "api/wallet",
			TelemetryURI: "api/telemetry",
			Timeout:      60 * time.Second,
		},
		Mirror: MirrorConfig{
			PublicRoot: "public",
		},
		Sync: SyncConfig{
			Interval:       15 * time.Minute,
			GuestUsername:  "guest",
			DeviceUUID:     "boatserver",
			ClientVersion:  "2.0.0",
			TelemetrySpool: "telemetry.log",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the Config from defaults, the optional settings file, and
// the environment. Returns an error listing any required values that are
// still unset after all layers are applied.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config.Load: defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config.Load: settings file %s: %w", path, err)
		}
	}

	// BOATSERVER_REMOTE_API_KEY -> remote.api_key: strip the prefix,
	// lowercase, and split section from key on the first underscore.
	envProvider := env.Provider(envPrefix, ".", func(name string) string {
		name = strings.ToLower(strings.TrimPrefix(name, envPrefix))
		return strings.Replace(name, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config.Load: environment: %w", err)
	}

	// CORS origins arrive as a comma-separated string from the environment.
	if s, ok := k.Get("server.cors_origins").(string); ok {
		if err := k.Set("server.cors_origins", splitCSV(s)); err != nil {
			return nil, fmt.Errorf("config.Load: cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required value is set.
// Returns an error listing all missing keys at once, so a misconfigured
// deployment is fixed in one pass rather than one restart per key.
func (c *Config) Validate() error {
	var missing []string

	if c.Remote.Host == "" {
		missing = append(missing, "remote.host")
	}
	if c.Remote.APIKey == "" {
		missing = append(missing, "remote.api_key")
	}
	if c.Mirror.LocalHost == "" {
		missing = append(missing, "mirror.local_host")
	}
	if c.Sync.ClientReference == "" {
		missing = append(missing, "sync.client_reference")
	}

	if len(missing) > 0 {
		return fmt.Errorf("required configuration not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// findConfigFile returns the first settings file that exists, preferring
// an explicit CONFIG_PATH.
func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
