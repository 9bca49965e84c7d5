// Package config defines the engine's configuration surface and loads
// it from YAML, adapting the teacher's singleton Config/GetInstance
// shape to the expanded set of components spec §6 requires (server and
// route cache size, memory, upstream load balancing and health probing,
// tracing). The middleware chain has no configuration section.
package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kestrelhttp/core/internal/loadbalancer"
	"github.com/kestrelhttp/core/internal/memory"
)

var (
	instance *Config
	once     sync.Once
	loadMu   sync.Mutex
)

// Config aggregates every component's configuration for centralized
// management, loaded once at startup from a single YAML document.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Memory     memory.Config    `yaml:"memory"`
	Cache      CacheConfig      `yaml:"cache"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	LoadBalance LoadBalanceConfig `yaml:"loadBalance"`
	Health     HealthConfig     `yaml:"health"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// ServerConfig defines the HTTP listener's behaviour.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	TLSCertFile    string        `yaml:"tlsCertFile"`
	TLSKeyFile     string        `yaml:"tlsKeyFile"`
	RouteCacheSize int           `yaml:"routeCacheSize"`
}

// CacheConfig retains the teacher's response-cache knobs even though
// this port's routecache is an LRU route-match cache rather than a
// TTL response cache (spec §9 draws that distinction explicitly). No
// component reads these fields; there is no response caching layer.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	MaxSize int           `yaml:"maxSize"`
	TTL     time.Duration `yaml:"ttl"`
}

// RateLimitConfig is carried for the rate_limit middleware slot, which
// remains a no-op placeholder (spec §9); these fields are unused until
// a dedicated rate limiter is designed.
type RateLimitConfig struct {
	Enabled    bool `yaml:"enabled"`
	Capacity   int  `yaml:"capacity"`
	RefillRate int  `yaml:"refillRate"`
}

// LoadBalanceConfig configures the Upstream route kind's backend set.
type LoadBalanceConfig struct {
	Algorithm string                       `yaml:"algorithm"`
	Backends  []loadbalancer.BackendConfig `yaml:"backends"`
}

// HealthConfig configures upstream backend probing.
type HealthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Path     string        `yaml:"path"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	ServiceName    string  `yaml:"serviceName"`
	ServiceVersion string  `yaml:"serviceVersion"`
	Environment    string  `yaml:"environment"`
	JaegerEndpoint string  `yaml:"jaegerEndpoint"`
	OTLPEndpoint   string  `yaml:"otlpEndpoint"`
	SamplingRatio  float64 `yaml:"samplingRatio"`
}

// DefaultConfig returns sensible defaults for every component.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			RouteCacheSize: 1000,
		},
		Memory: memory.DefaultConfig(),
		Cache: CacheConfig{
			Enabled: true,
			MaxSize: 1000,
			TTL:     5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:    false,
			Capacity:   100,
			RefillRate: 10,
		},
		LoadBalance: LoadBalanceConfig{
			Algorithm: "round-robin",
			Backends:  []loadbalancer.BackendConfig{},
		},
		Health: HealthConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
			Path:     "/health",
		},
		Tracing: TracingConfig{
			Enabled:        false,
			ServiceName:    "kestrel-core",
			ServiceVersion: "0.1.0",
			Environment:    "development",
			SamplingRatio:  0.1,
		},
	}
}

// GetInstance returns the process-wide singleton, lazily defaulted if
// LoadConfig was never called.
func GetInstance() *Config {
	once.Do(func() {
		loadMu.Lock()
		defer loadMu.Unlock()
		if instance == nil {
			instance = DefaultConfig()
		}
	})
	return instance
}

// LoadConfig reads path as YAML, merging it over DefaultConfig, and
// installs the result as the singleton. Safe to call more than once
// (e.g. in tests); unlike the teacher's sync.Once-gated LoadConfig,
// this one re-parses every call so a test harness can reload between
// cases.
func LoadConfig(path string) (*Config, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	cfg, err := loadFromFile(path)
	if err != nil {
		return nil, err
	}
	instance = cfg
	return cfg, nil
}

// loadFromFile reads path as YAML over top of DefaultConfig's values,
// using gopkg.in/yaml.v3 (the teacher's loadFromFile was a stub
// returning DefaultConfig() unconditionally; this replaces it with a
// real decode).
func loadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
