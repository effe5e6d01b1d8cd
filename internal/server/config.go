package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/auto-quote/internal/config"
	"github.com/iwvelando/auto-quote/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address       string               `yaml:"address"`
	MaxBodySize   string               `yaml:"maxBodySize"`
	Logging       config.LoggingConfig `yaml:"logging"`
	CORS          CORSConfig           `yaml:"cors"`
	Cache         CacheConfig          `yaml:"cache"`
	bodySizeBytes int64
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// CacheConfig selects and tunes the quote cache.
type CacheConfig struct {
	Backend string        `yaml:"backend"` // memory, redis, none
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig locates the shared Redis cache.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Address:     constants.DefaultServerAddress,
		MaxBodySize: fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes),
		CORS:        CORSConfig{AllowedOrigins: []string{"*"}},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     constants.DefaultCacheTTLSeconds * time.Second,
			Redis: RedisConfig{
				Timeout: constants.DefaultCacheTimeoutMillis * time.Millisecond,
			},
		},
		bodySizeBytes: constants.DefaultMaxBodySizeBytes,
	}
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with AUTOQUOTE_ADDRESS,
// AUTOQUOTE_MAX_BODY_SIZE, AUTOQUOTE_CACHE_BACKEND, AUTOQUOTE_REDIS_ADDRESS
// and AUTOQUOTE_REDIS_PASSWORD when they are set.
func (c *Config) ApplyEnv() error {
	if v, ok := lookupEnv("ADDRESS"); ok {
		c.Address = v
	}
	if v, ok := lookupEnv("MAX_BODY_SIZE"); ok {
		c.MaxBodySize = v
	}
	if v, ok := lookupEnv("CACHE_BACKEND"); ok {
		c.Cache.Backend = v
	}
	if v, ok := lookupEnv("REDIS_ADDRESS"); ok {
		c.Cache.Redis.Address = v
		if _, set := lookupEnv("CACHE_BACKEND"); !set {
			c.Cache.Backend = CacheRedis
		}
	}
	if v, ok := lookupEnv("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	return c.normalize()
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(constants.EnvPrefix + "_" + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// BodySizeBytes returns the configured request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// SetBodySizeBytes overrides the configured request body limit.
func (c *Config) SetBodySizeBytes(size int64) {
	if size > 0 {
		c.bodySizeBytes = size
		c.MaxBodySize = fmt.Sprintf("%d", size)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}

	switch strings.ToLower(strings.TrimSpace(c.Cache.Backend)) {
	case "", CacheMemory:
		c.Cache.Backend = CacheMemory
	case CacheRedis:
		c.Cache.Backend = CacheRedis
		if c.Cache.Redis.Address == "" {
			return fmt.Errorf("cache backend %s requires cache.redis.address", CacheRedis)
		}
	case CacheNone:
		c.Cache.Backend = CacheNone
	default:
		return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Cache.Redis.Timeout <= 0 {
		c.Cache.Redis.Timeout = constants.DefaultCacheTimeoutMillis * time.Millisecond
	}

	sizeStr := strings.TrimSpace(c.MaxBodySize)
	if sizeStr == "" {
		c.bodySizeBytes = constants.DefaultMaxBodySizeBytes
		c.MaxBodySize = fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxBodySizeBytes
	}
	c.bodySizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "64K", "1M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 || (n != 0 && result/multiplier != n) {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
