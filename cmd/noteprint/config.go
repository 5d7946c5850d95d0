package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mathbatistela/go-noteprint/internal/fileutil"
	"github.com/mathbatistela/go-noteprint/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
)

// Config holds deployment configuration for the printer.
type Config struct {
	Printer PrinterConfig `yaml:"printer"`
	Render  RenderConfig  `yaml:"render"`
}

// PrinterConfig defines the USB device and protocol limits.
type PrinterConfig struct {
	Enabled       bool    `yaml:"enabled"`       // false = recording transport
	AutoDetect    bool    `yaml:"autoDetect"`    // scan the bus by vendor id
	VendorID      uint16  `yaml:"vendorId"`      // default 0x6868
	ProductID     uint16  `yaml:"productId"`     // default 0x0200
	Interface     int     `yaml:"interface"`     // default 0
	OutEndpoint   int     `yaml:"outEndpoint"`   // default 0x03
	InEndpoint    int     `yaml:"inEndpoint"`    // default 0x81
	MaxWidthPx    int     `yaml:"maxWidthPx"`    // head dot columns, default 384
	MaxFrameBytes int     `yaml:"maxFrameBytes"` // 0 = single raster frame
	FeedMarginMM  float64 `yaml:"feedMarginMm"`  // paper purge, default 15
}

// RenderConfig defines rendering options.
type RenderConfig struct {
	Dither   string `yaml:"dither"`   // floyd-steinberg, bayer, threshold
	Template string `yaml:"template"` // path to a default template override
}

// DefaultConfig returns a configuration matching the supported 58 mm
// printer family with the physical device disabled.
func DefaultConfig() *Config {
	return &Config{
		Printer: PrinterConfig{
			Enabled:      false,
			VendorID:     0x6868,
			ProductID:    0x0200,
			OutEndpoint:  0x03,
			InEndpoint:   0x81,
			MaxWidthPx:   384,
			FeedMarginMM: 15,
		},
		Render: RenderConfig{
			Dither: "floyd-steinberg",
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard
// locations. Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/noteprint/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "noteprint", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
