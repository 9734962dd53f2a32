package di

import (
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-wallet-query/cache"
	"github.com/goliatone/go-wallet-query/querycache"
	"github.com/goliatone/go-wallet-query/wallet"
)

// Config aggregates the settings of every component the container builds.
type Config struct {
	Cache  cache.Config      `yaml:"cache"`
	Query  querycache.Config `yaml:"query"`
	Wallet wallet.Config     `yaml:"wallet"`
	Log    LogConfig         `yaml:"log"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the defaults of every component.
func DefaultConfig() Config {
	return Config{
		Cache:  cache.DefaultConfig(),
		Query:  querycache.DefaultConfig(),
		Wallet: wallet.DefaultConfig(),
		Log:    LogConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryNotFound, "unable to read config file").
			WithTextCode("CONFIG_READ_FAILED").
			WithMetadata(map[string]any{"path": path})
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse config file").
			WithTextCode("CONFIG_PARSE_FAILED").
			WithMetadata(map[string]any{"path": path})
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks each section and returns the first failure.
func (c Config) Validate() error {
	for _, v := range []validation.Validatable{c.Cache, c.Query, c.Wallet, c.Log} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (l LogConfig) Validate() error {
	err := validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.By(func(v any) error {
			s, _ := v.(string)
			if s == "" {
				return nil
			}
			_, err := zapcore.ParseLevel(s)
			return err
		})),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid log configuration").
			WithTextCode("LOG_CONFIG_INVALID")
	}
	return nil
}
