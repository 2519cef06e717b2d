// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sugawarayuuta/sonnet"
)

// ErrConfig is returned for a configuration document with invalid values.
var ErrConfig = errors.New("vtex: invalid configuration")

// Config is the file form of the VirtualTexture options.
//
//	{
//	    "atlas_size": 4096,
//	    "uploads_per_frame": 5,
//	    "mip_bias": 0,
//	    "workers": 8,
//	    "show_borders": false,
//	    "show_mip": false
//	}
//
// Fields missing from the document keep their defaults.
type Config struct {
	AtlasSize       int  `json:"atlas_size"`
	UploadsPerFrame int  `json:"uploads_per_frame"`
	MipBias         int  `json:"mip_bias"`
	Workers         int  `json:"workers"`
	ShowBorders     bool `json:"show_borders"`
	ShowMip         bool `json:"show_mip"`
}

// DefaultConfig returns the configuration New uses without options.
func DefaultConfig() Config {
	return Config{
		AtlasSize:       DefaultAtlasSize,
		UploadsPerFrame: DefaultUploadsPerFrame,
	}
}

// ParseConfig decodes a JSON configuration document over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := sonnet.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("vtex: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and decodes the configuration file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("vtex: read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks the values that do not depend on a tile file. The atlas
// size is checked against the page size by New.
func (c Config) Validate() error {
	switch {
	case c.AtlasSize <= 0:
		return fmt.Errorf("%w: atlas_size %d", ErrConfig, c.AtlasSize)
	case c.UploadsPerFrame < 0:
		return fmt.Errorf("%w: uploads_per_frame %d", ErrConfig, c.UploadsPerFrame)
	case c.MipBias < 0:
		return fmt.Errorf("%w: mip_bias %d", ErrConfig, c.MipBias)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrConfig, c.Workers)
	}
	return nil
}

// Options converts c to the equivalent option list.
func (c Config) Options() []Option {
	return []Option{
		WithAtlasSize(c.AtlasSize),
		WithUploadsPerFrame(c.UploadsPerFrame),
		WithMipBias(c.MipBias),
		WithWorkers(c.Workers),
		WithShowBorders(c.ShowBorders),
		WithShowMip(c.ShowMip),
	}
}

// Marshal encodes c as JSON.
func (c Config) Marshal() ([]byte, error) {
	data, err := sonnet.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("vtex: encode config: %w", err)
	}
	return data, nil
}
