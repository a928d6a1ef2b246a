package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineWhisperCpp, EngineWaaS:
	default:
		return fmt.Errorf("engine must be one of %s, %s; got %q", EngineWhisperCpp, EngineWaaS, c.Engine)
	}
	if err := c.validateWaaS(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWaaS() error {
	u, err := url.Parse(c.WaaS.Host)
	if err != nil {
		return fmt.Errorf("waas.host: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("waas.host must be an http(s) URL, got %q", c.WaaS.Host)
	}
	if c.WaaS.Retry < 0 {
		return errors.New("waas.retry must not be negative")
	}
	if c.WaaS.Timeout <= 0 {
		return errors.New("waas.timeout must be positive")
	}
	if c.WaaS.RequestTimeout <= 0 {
		return errors.New("waas.request_timeout must be positive")
	}
	return nil
}
