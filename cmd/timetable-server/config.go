package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"ctutimetable-backend/lib/configutil"
	"ctutimetable-backend/lib/subjectstore"

	"github.com/joho/godotenv"
)

type PortalConfig struct {
	BaseUrl        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	CAFile         string `json:"ca_file"`
}

type CredentialsConfig struct {
	StudentId string `json:"student_id"`
	Password  string `json:"password"`
}

type RedisConfig struct {
	// redis://[:password@]host:port/db, empty keeps the cache in memory
	Url string `json:"url"`
}

type CacheConfig struct {
	TTLSeconds           int         `json:"ttl_seconds"`
	SweepIntervalSeconds int         `json:"sweep_interval_seconds"`
	Redis                RedisConfig `json:"redis"`
}

type SubjectStoreConfig struct {
	Kind    subjectstore.Kind `json:"kind"`
	Locator string            `json:"locator"`
}

type RateLimitConfig struct {
	Requests      int `json:"requests"`
	WindowSeconds int `json:"window_seconds"`
}

type HttpConfig struct {
	Port         int             `json:"port"`
	AllowOrigins []string        `json:"allow_origins"`
	RateLimit    RateLimitConfig `json:"rate_limit"`
}

type Config struct {
	Portal       PortalConfig       `json:"portal"`
	Credentials  CredentialsConfig  `json:"credentials"`
	Cache        CacheConfig        `json:"cache"`
	SubjectStore SubjectStoreConfig `json:"subject_store"`
	Http         HttpConfig         `json:"http"`
}

func defaultConfig() Config {
	return Config{
		Portal: PortalConfig{TimeoutSeconds: 30},
		Cache: CacheConfig{
			TTLSeconds:           3600,
			SweepIntervalSeconds: 3600,
		},
		SubjectStore: SubjectStoreConfig{
			Kind:    subjectstore.KindFile,
			Locator: "db.json",
		},
		Http: HttpConfig{Port: 8080},
	}
}

// LoadConfig reads config.json5 (optional), then .env (optional), then lets
// the environment override individual settings.
func LoadConfig(lookupEnv func(string) (string, bool)) (Config, error) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Config{}
	} else if err != nil {
		return Config{}, err
	}
	fillDefaults(&cfg)

	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg, lookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func fillDefaults(cfg *Config) {
	defaults := defaultConfig()
	if cfg.Portal.TimeoutSeconds == 0 {
		cfg.Portal.TimeoutSeconds = defaults.Portal.TimeoutSeconds
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = defaults.Cache.TTLSeconds
	}
	if cfg.Cache.SweepIntervalSeconds == 0 {
		cfg.Cache.SweepIntervalSeconds = defaults.Cache.SweepIntervalSeconds
	}
	if cfg.SubjectStore.Kind == "" {
		cfg.SubjectStore = defaults.SubjectStore
	}
	if cfg.Http.Port == 0 {
		cfg.Http.Port = defaults.Http.Port
	}
}

func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) error {
	str := func(name string, target *string) {
		if value, ok := lookupEnv(name); ok && value != "" {
			*target = value
		}
	}
	num := func(name string, target *int) error {
		value, ok := lookupEnv(name)
		if !ok || value == "" {
			return nil
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("environment variable %s: %w", name, err)
		}
		*target = parsed
		return nil
	}

	str("STUDENT_ID", &cfg.Credentials.StudentId)
	str("PASSWORD", &cfg.Credentials.Password)
	str("PORTAL_BASE_URL", &cfg.Portal.BaseUrl)
	str("PORTAL_CA_FILE", &cfg.Portal.CAFile)
	str("REDIS_URL", &cfg.Cache.Redis.Url)
	str("SUBJECT_STORE_LOCATOR", &cfg.SubjectStore.Locator)
	if kind, ok := lookupEnv("SUBJECT_STORE_KIND"); ok && kind != "" {
		cfg.SubjectStore.Kind = subjectstore.Kind(kind)
	}
	if origins, ok := lookupEnv("ALLOW_ORIGIN"); ok && origins != "" {
		cfg.Http.AllowOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Http.AllowOrigins = append(cfg.Http.AllowOrigins, origin)
			}
		}
	}

	return errors.Join(
		num("PORT", &cfg.Http.Port),
		num("EXPIRE", &cfg.Cache.TTLSeconds),
	)
}

func (c Config) Validate() error {
	var errs []error
	if c.Credentials.StudentId == "" || c.Credentials.Password == "" {
		errs = append(errs, errors.New("missing portal credentials (STUDENT_ID, PASSWORD)"))
	}
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %d", c.Cache.TTLSeconds))
	}
	if c.Cache.SweepIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cache sweep interval must be positive, got %d", c.Cache.SweepIntervalSeconds))
	}
	switch c.SubjectStore.Kind {
	case subjectstore.KindFile, subjectstore.KindSQL, subjectstore.KindRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown subject store kind %q", c.SubjectStore.Kind))
	}
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Http.Port))
	}
	if c.Http.RateLimit.Requests > 0 && c.Http.RateLimit.WindowSeconds <= 0 {
		errs = append(errs, errors.New("rate limit needs a positive window_seconds"))
	}
	return errors.Join(errs...)
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
