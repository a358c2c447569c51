// Package config loads client and server settings from defaults, an
// optional YAML file, a .env file and JOALISTAY_* environment variables,
// in that order of precedence, lowest first.
package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/storage"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "JOALISTAY_"

const (
	DefaultListen     = ":8080"
	DefaultCookieName = "joalistay_visitor"
	DefaultVisitorTTL = 24 * time.Hour
	DefaultLogLevel   = "info"
	DefaultSQLiteDSN  = "file:joalistay.db?cache=shared"
)

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Server struct {
	Listen     string        `yaml:"listen"`
	CookieName string        `yaml:"cookie_name"`
	VisitorTTL time.Duration `yaml:"visitor_ttl"`
	Secure     bool          `yaml:"secure_cookie"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Storage struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Redis  Redis  `yaml:"redis"`
}

// Config implements joalistay.Config.
type Config struct {
	BaseURL           string                `yaml:"base_url"`
	APIKey            string                `yaml:"api_key"`
	RequestTimeout    time.Duration         `yaml:"request_timeout"`
	LoginRoute        string                `yaml:"login_route"`
	UnauthorizedRoute string                `yaml:"unauthorized_route"`
	ClearPolicy       joalistay.ClearPolicy `yaml:"clear_policy"`
	Debug             bool                  `yaml:"debug"`
	Log               Log                   `yaml:"log"`
	Server            Server                `yaml:"server"`
	Storage           Storage               `yaml:"storage"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		BaseURL:           joalistay.DefaultBaseURL,
		RequestTimeout:    joalistay.DefaultRequestTimeout,
		LoginRoute:        joalistay.DefaultLoginRoute,
		UnauthorizedRoute: joalistay.DefaultUnauthorizedRoute,
		ClearPolicy:       joalistay.ClearPolicyAll,
		Log: Log{
			Level: DefaultLogLevel,
		},
		Server: Server{
			Listen:     DefaultListen,
			CookieName: DefaultCookieName,
			VisitorTTL: DefaultVisitorTTL,
		},
		Storage: Storage{
			Driver: storage.DriverMemory,
		},
	}
}

// Load builds the configuration. path may be empty, a missing .env file is
// not an error. Values already in the environment win over .env entries.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read env file").
				WithMetadata(map[string]any{"file": f})
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, errors.FromOzzoValidation(err, "invalid configuration")
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to read config file").
			WithMetadata(map[string]any{"path": path})
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse config file").
			WithMetadata(map[string]any{"path": path})
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok
	}

	str := func(name string, dst *string) {
		if v, ok := get(name); ok && v != "" {
			*dst = v
		}
	}

	str("BASE_URL", &c.BaseURL)
	str("API_KEY", &c.APIKey)
	str("LOGIN_ROUTE", &c.LoginRoute)
	str("UNAUTHORIZED_ROUTE", &c.UnauthorizedRoute)
	str("LOG_LEVEL", &c.Log.Level)
	str("LISTEN", &c.Server.Listen)
	str("COOKIE_NAME", &c.Server.CookieName)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DSN", &c.Storage.DSN)
	str("REDIS_ADDR", &c.Storage.Redis.Addr)
	str("REDIS_PASSWORD", &c.Storage.Redis.Password)
	str("REDIS_PREFIX", &c.Storage.Redis.Prefix)

	if v, ok := get("CLEAR_POLICY"); ok && v != "" {
		c.ClearPolicy = joalistay.ClearPolicy(strings.ToLower(v))
	}

	for name, dst := range map[string]*time.Duration{
		"REQUEST_TIMEOUT": &c.RequestTimeout,
		"VISITOR_TTL":     &c.Server.VisitorTTL,
	} {
		v, ok := get(name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "invalid duration").
				WithMetadata(map[string]any{"env": EnvPrefix + name, "value": v})
		}
		*dst = d
	}

	for name, dst := range map[string]*bool{
		"DEBUG":         &c.Debug,
		"LOG_DEV":       &c.Log.Development,
		"SECURE_COOKIE": &c.Server.Secure,
	} {
		v, ok := get(name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "invalid boolean").
				WithMetadata(map[string]any{"env": EnvPrefix + name, "value": v})
		}
		*dst = b
	}

	if v, ok := get("REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "invalid redis db").
				WithMetadata(map[string]any{"value": v})
		}
		c.Storage.Redis.DB = n
	}

	return nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.ClearPolicy, validation.In(joalistay.ClearPolicyAll, joalistay.ClearPolicyTokensOnly)),
		validation.Field(&c.Log),
		validation.Field(&c.Storage),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}

func (s Storage) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.In(storage.DriverMemory, storage.DriverSQLite, storage.DriverRedis)),
		validation.Field(&s.Redis, validation.By(func(any) error {
			if s.Driver != storage.DriverRedis {
				return nil
			}
			return validation.ValidateStruct(&s.Redis,
				validation.Field(&s.Redis.Addr, validation.Required),
			)
		})),
	)
}

func (c *Config) GetBaseURL() string {
	return c.BaseURL
}

func (c *Config) GetAPIKey() string {
	return c.APIKey
}

func (c *Config) GetRequestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return joalistay.DefaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c *Config) GetLoginRoute() string {
	if c.LoginRoute == "" {
		return joalistay.DefaultLoginRoute
	}
	return c.LoginRoute
}

func (c *Config) GetUnauthorizedRoute() string {
	if c.UnauthorizedRoute == "" {
		return joalistay.DefaultUnauthorizedRoute
	}
	return c.UnauthorizedRoute
}

func (c *Config) GetClearPolicy() joalistay.ClearPolicy {
	if c.ClearPolicy == "" {
		return joalistay.ClearPolicyAll
	}
	return c.ClearPolicy
}

// StorageOptions translates the storage section for storage.Open. An empty
// sqlite DSN falls back to a file in the working directory.
func (c *Config) StorageOptions() storage.Options {
	dsn := c.Storage.DSN
	if c.Storage.Driver == storage.DriverSQLite && dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	return storage.Options{
		Driver: c.Storage.Driver,
		DSN:    dsn,
		Redis: storage.RedisConfig{
			Addr:     c.Storage.Redis.Addr,
			Password: c.Storage.Redis.Password,
			DB:       c.Storage.Redis.DB,
			Prefix:   c.Storage.Redis.Prefix,
			TTL:      c.Server.VisitorTTL,
		},
	}
}

// OpenStorage opens the configured medium.
func (c *Config) OpenStorage(ctx context.Context) (storage.Store, error) {
	return storage.Open(ctx, c.StorageOptions())
}
