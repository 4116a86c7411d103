package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileConfig is the JSON form of a compiler configuration
type FileConfig struct {
	DefaultExpression string `json:"defaultExpression"`
	Debug             bool   `json:"debug"`
	BooleanAttributes *bool  `json:"booleanAttributes"`
	TargetLanguage    string `json:"targetLanguage"`
	Domain            string `json:"domain"`
}

// ParseConfigFile reads and parses a JSON configuration file
func ParseConfigFile(path string) (*FileConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config FileConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// Options converts the file settings to compiler options
func (f *FileConfig) Options() []CompilerConfigOption {
	var opts []CompilerConfigOption
	if f.DefaultExpression != "" {
		opts = append(opts, WithDefaultExpression(f.DefaultExpression))
	}
	if f.BooleanAttributes != nil {
		opts = append(opts, WithBooleanAttributes(*f.BooleanAttributes))
	}
	if f.TargetLanguage != "" {
		opts = append(opts, WithTargetLanguage(f.TargetLanguage))
	}
	if f.Domain != "" {
		opts = append(opts, WithDomain(f.Domain))
	}
	return append(opts, WithDebug(f.Debug))
}
