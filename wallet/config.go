package wallet

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const (
	DefaultTokenImageBaseURL = "chrome://erc-token-images/"
	DefaultFanOutLimit       = 8
)

// Config tunes the wallet endpoints.
type Config struct {
	// TokenImageBaseURL prefixes relative token logo paths.
	TokenImageBaseURL string `yaml:"token_image_base_url"`
	// FanOutLimit caps concurrent per-network and per-account calls.
	FanOutLimit int `yaml:"fan_out_limit"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		TokenImageBaseURL: DefaultTokenImageBaseURL,
		FanOutLimit:       DefaultFanOutLimit,
	}
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.TokenImageBaseURL, validation.Required),
		validation.Field(&c.FanOutLimit, validation.Min(0)),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid wallet configuration").
			WithTextCode("WALLET_CONFIG_INVALID")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.TokenImageBaseURL == "" {
		c.TokenImageBaseURL = DefaultTokenImageBaseURL
	}
	return c
}
