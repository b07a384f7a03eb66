package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Outcome records which path LoadOrCreate took.
type Outcome int

const (
	// OutcomeLoaded means the sidecar was read and decoded.
	OutcomeLoaded Outcome = iota
	// OutcomeCreated means no sidecar existed and the default was written.
	OutcomeCreated
	// OutcomeCorrupt means the sidecar could not be decoded and was replaced by the default.
	OutcomeCorrupt
	// OutcomeReadFailed means the sidecar exists but could not be read; it is left untouched.
	OutcomeReadFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoaded:
		return "loaded"
	case OutcomeCreated:
		return "created"
	case OutcomeCorrupt:
		return "corrupt"
	case OutcomeReadFailed:
		return "read_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// LoadResult is the value returned by LoadOrCreate. Config is always usable.
type LoadResult struct {
	Config  Config
	Outcome Outcome
	Path    string

	// Err is the read or decode error that caused a fallback.
	Err error

	// WriteErr is set when persisting the default failed.
	WriteErr error
}

// Defaulted reports whether Config is the built-in default rather than file contents.
func (r LoadResult) Defaulted() bool {
	return r.Outcome != OutcomeLoaded
}

// LoadOrCreate reads the sidecar at path, falling back to Default() when the
// file is missing or cannot be decoded. The default is written back in those
// two cases; a write failure is reported in WriteErr but never replaces the
// returned Config.
func LoadOrCreate(path string) LoadResult {
	result := LoadResult{Path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg, decodeErr := Decode(path, data)
		if decodeErr == nil {
			result.Config = cfg
			result.Outcome = OutcomeLoaded
			return result
		}
		result.Outcome = OutcomeCorrupt
		result.Err = decodeErr
	case errors.Is(err, fs.ErrNotExist):
		result.Outcome = OutcomeCreated
	default:
		result.Config = Default()
		result.Outcome = OutcomeReadFailed
		result.Err = fmt.Errorf("failed to read config file: %w", err)
		return result
	}

	result.Config = Default()
	result.WriteErr = Save(path, result.Config)
	return result
}

// Decode parses sidecar contents. The format is chosen by the path extension.
func Decode(path string, data []byte) (Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, errors.New("failed to parse config: empty file")
	}

	var cfg Config
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Encode renders cfg in the format chosen by the path extension.
func Encode(path string, cfg Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes cfg to path, creating or truncating the file.
func Save(path string, cfg Config) error {
	data, err := Encode(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
