package querycache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultKeepUnusedDataFor is the grace period before an entry without
// subscribers is evicted.
const DefaultKeepUnusedDataFor = 60 * time.Second

// Config controls a Cache and the Client built on top of it.
type Config struct {
	// KeepUnusedDataFor is how long an entry with no subscribers survives.
	KeepUnusedDataFor time.Duration `yaml:"keep_unused_data_for"`

	// MaxIdleEntries caps the number of unsubscribed entries kept around.
	// Zero means no cap.
	MaxIdleEntries int `yaml:"max_idle_entries"`

	// StrictDependencies rejects initiating an endpoint that the caller did
	// not list in DependsOn.
	StrictDependencies bool `yaml:"strict_dependencies"`

	Logger     *zap.Logger          `yaml:"-"`
	Registerer prometheus.Registerer `yaml:"-"`
}

// DefaultConfig returns the defaults used by NewCache.
func DefaultConfig() Config {
	return Config{
		KeepUnusedDataFor:  DefaultKeepUnusedDataFor,
		StrictDependencies: true,
	}
}

// Validate checks the configured limits.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.KeepUnusedDataFor, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxIdleEntries, validation.Min(0)),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid query cache configuration").
			WithTextCode("QUERY_CONFIG_INVALID")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.KeepUnusedDataFor == 0 {
		c.KeepUnusedDataFor = DefaultKeepUnusedDataFor
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
