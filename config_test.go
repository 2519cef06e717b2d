// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    Config
		wantErr error
	}{
		{
			name: "empty keeps defaults",
			doc:  `{}`,
			want: DefaultConfig(),
		},
		{
			name: "partial",
			doc:  `{"atlas_size": 2048, "show_mip": true}`,
			want: Config{AtlasSize: 2048, UploadsPerFrame: DefaultUploadsPerFrame, ShowMip: true},
		},
		{
			name: "full",
			doc:  `{"atlas_size": 1024, "uploads_per_frame": 8, "mip_bias": 2, "workers": 3, "show_borders": true, "show_mip": false}`,
			want: Config{AtlasSize: 1024, UploadsPerFrame: 8, MipBias: 2, Workers: 3, ShowBorders: true},
		},
		{
			name:    "negative bias",
			doc:     `{"mip_bias": -1}`,
			wantErr: ErrConfig,
		},
		{
			name:    "zero atlas",
			doc:     `{"atlas_size": 0}`,
			wantErr: ErrConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig([]byte(tt.doc))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseConfig() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConfig() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseConfigMalformed(t *testing.T) {
	if _, err := ParseConfig([]byte(`{"atlas_size": `)); err == nil {
		t.Error("ParseConfig() accepted truncated JSON")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtex.json")
	cfg := Config{AtlasSize: 20, UploadsPerFrame: 2, MipBias: 1, ShowBorders: true}
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if got != cfg {
		t.Errorf("LoadConfig() = %+v, want %+v", got, cfg)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig(missing) error = %v, want ErrNotExist", err)
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := Config{AtlasSize: 20, UploadsPerFrame: 2, MipBias: 1, ShowBorders: true}
	opts := append(cfg.Options(), WithExecutor(&inlineExecutor{}))

	vt, err := New(newMemStore(testHeader), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = vt.Close() }()

	if vt.AtlasCells() != 2 {
		t.Errorf("AtlasCells() = %d, want 2", vt.AtlasCells())
	}
	if vt.MipBias() != 1 {
		t.Errorf("MipBias() = %d, want 1", vt.MipBias())
	}
	if vt.sched.Budget() != 2 {
		t.Errorf("Budget() = %d, want 2", vt.sched.Budget())
	}
	if !vt.Loader().showBorders.Load() {
		t.Error("show_borders not applied")
	}
}
