package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fmueller/voxcaption/internal/platform"
	"github.com/pelletier/go-toml/v2"
)

// WhisperCpp configures the local whisper.cpp engine.
type WhisperCpp struct {
	Executable      string `toml:"executable"`
	Model           string `toml:"model"`
	ModelDir        string `toml:"model_dir"`
	DefaultLanguage string `toml:"default_language"`
	AutoEncode      bool   `toml:"auto_encode"`
}

// WaaS configures the remote Whisper-as-a-Service engine. Durations are in seconds.
type WaaS struct {
	Host             string `toml:"host"`
	Retry            int    `toml:"retry"`
	Timeout          int    `toml:"timeout"`
	RequestTimeout   int    `toml:"request_timeout"`
	FallbackLanguage string `toml:"fallback_language"`
	AutoEncode       bool   `toml:"auto_encode"`
}

// Config is the complete voxcaption configuration.
type Config struct {
	Engine     string     `toml:"engine"`
	FFmpegPath string     `toml:"ffmpeg_path"`
	WhisperCpp WhisperCpp `toml:"whispercpp"`
	WaaS       WaaS       `toml:"waas"`
}

// Load reads the configuration at path, or at the default location when path
// is empty, applies environment overrides and validates the result. A missing
// file is not an error; the returned bool reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	resolvedPath, err := platform.ResolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	exists := true
	data, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	}

	cfg, err := parse(data, os.Getenv)
	if err != nil {
		return nil, "", false, fmt.Errorf("%s: %w", resolvedPath, err)
	}
	return cfg, resolvedPath, exists, nil
}

// parse decodes TOML content on top of the defaults. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func parse(data []byte, getenv func(string) string) (*Config, error) {
	cfg := Default()

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv(getenv)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal renders c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("VOXCAPTION_ENGINE")); v != "" {
		c.Engine = v
	}
	if v := strings.TrimSpace(getenv("VOXCAPTION_FFMPEG_PATH")); v != "" {
		c.FFmpegPath = v
	}
	if v := strings.TrimSpace(getenv("VOXCAPTION_WHISPERCPP_PATH")); v != "" {
		c.WhisperCpp.Executable = v
	}
	if v := strings.TrimSpace(getenv("VOXCAPTION_WAAS_HOST")); v != "" {
		c.WaaS.Host = v
	}
}

func (c *Config) normalize() {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	c.FFmpegPath = strings.TrimSpace(c.FFmpegPath)
	if c.FFmpegPath == "" {
		c.FFmpegPath = defaultFFmpegPath
	}

	c.WhisperCpp.Executable = strings.TrimSpace(c.WhisperCpp.Executable)
	if c.WhisperCpp.Executable == "" {
		c.WhisperCpp.Executable = defaultWhisperCppExecutable
	}
	c.WhisperCpp.Model = strings.TrimSpace(c.WhisperCpp.Model)
	if c.WhisperCpp.Model == "" {
		c.WhisperCpp.Model = defaultWhisperCppModel
	}
	c.WhisperCpp.ModelDir = strings.TrimSpace(c.WhisperCpp.ModelDir)
	c.WhisperCpp.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.WhisperCpp.DefaultLanguage))
	if c.WhisperCpp.DefaultLanguage == "" {
		c.WhisperCpp.DefaultLanguage = defaultWhisperCppLanguage
	}

	c.WaaS.Host = strings.TrimRight(strings.TrimSpace(c.WaaS.Host), "/")
	c.WaaS.FallbackLanguage = strings.ToLower(strings.TrimSpace(c.WaaS.FallbackLanguage))
	if c.WaaS.FallbackLanguage == "" {
		c.WaaS.FallbackLanguage = defaultWaaSFallbackLanguage
	}
}
