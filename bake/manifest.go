// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package bake

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/blake2b"

	"github.com/gogpu/vtex"
	"github.com/gogpu/vtex/tilefile"
)

// Manifest errors.
var (
	// ErrHeaderMismatch is returned when a tile file does not have the
	// header its manifest records.
	ErrHeaderMismatch = errors.New("bake: tile file header does not match manifest")

	// ErrDigestMismatch is returned when the tile records changed since the
	// manifest was written.
	ErrDigestMismatch = errors.New("bake: tile file digest does not match manifest")
)

// ManifestHeader is the JSON form of tilefile.Header.
type ManifestHeader struct {
	VirtualTextureSize int `json:"virtual_texture_size"`
	TileSize           int `json:"tile_size"`
	BorderSize         int `json:"border_size"`
}

// Manifest describes a baked tile file.
//
//	{
//	    "header": {"virtual_texture_size": 65536, "tile_size": 128, "border_size": 4},
//	    "page_count": 349525,
//	    "tile_bytes": 73984,
//	    "digest": "blake2b-256 of every tile record in index order, hex"
//	}
type Manifest struct {
	Header    ManifestHeader `json:"header"`
	PageCount int            `json:"page_count"`
	TileBytes int            `json:"tile_bytes"`
	Source    string         `json:"source,omitempty"`
	Digest    string         `json:"digest"`
}

// TileHeader returns the tile file header recorded in m.
func (m Manifest) TileHeader() tilefile.Header {
	return tilefile.Header{
		VirtualTextureSize: m.Header.VirtualTextureSize,
		TileSize:           m.Header.TileSize,
		BorderSize:         m.Header.BorderSize,
	}
}

// NewManifest describes store, hashing every tile.
func NewManifest(store vtex.TileReader) (Manifest, error) {
	hdr := store.Header()
	digest, err := Digest(store)
	if err != nil {
		return Manifest{}, err
	}
	return Manifest{
		Header: ManifestHeader{
			VirtualTextureSize: hdr.VirtualTextureSize,
			TileSize:           hdr.TileSize,
			BorderSize:         hdr.BorderSize,
		},
		PageCount: hdr.PageCount(),
		TileBytes: hdr.TileBytes(),
		Digest:    digest,
	}, nil
}

// Digest returns the hex blake2b-256 digest of every tile of store in index
// order.
func Digest(store vtex.TileReader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("bake: digest: %w", err)
	}
	hdr := store.Header()
	tile := make([]byte, hdr.TileBytes())
	for i := range hdr.PageCount() {
		if err := store.ReadTile(i, tile); err != nil {
			return "", fmt.Errorf("bake: digest tile %d: %w", i, err)
		}
		_, _ = h.Write(tile)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks that store matches m.
func Verify(store vtex.TileReader, m Manifest) error {
	if got := store.Header(); got != m.TileHeader() {
		return fmt.Errorf("%w: file %v, manifest %v", ErrHeaderMismatch, got, m.TileHeader())
	}
	digest, err := Digest(store)
	if err != nil {
		return err
	}
	if digest != m.Digest {
		return fmt.Errorf("%w: file %s, manifest %s", ErrDigestMismatch, digest, m.Digest)
	}
	return nil
}

// VerifyFile opens the tile file at path and checks it against m.
func VerifyFile(path string, m Manifest) error {
	f, err := tilefile.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return Verify(f, m)
}

// WriteManifest writes m as JSON to path.
func WriteManifest(path string, m Manifest) error {
	data, err := sonnet.Marshal(m)
	if err != nil {
		return fmt.Errorf("bake: encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("bake: write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Manifest{}, fmt.Errorf("bake: read manifest: %w", err)
	}
	var m Manifest
	if err := sonnet.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("bake: decode manifest: %w", err)
	}
	return m, nil
}

// BakeFile decodes the image at srcPath, bakes it into a new tile file at
// outPath and returns the file's manifest.
func BakeFile(ctx context.Context, srcPath, outPath string, hdr tilefile.Header, opts ...Option) (Manifest, error) {
	src, format, err := LoadImage(srcPath)
	if err != nil {
		return Manifest{}, err
	}
	vtex.Logger().Info("bake: source loaded", "path", srcPath, "format", format, "bounds", src.Bounds())

	f, err := tilefile.Create(outPath, hdr)
	if err != nil {
		return Manifest{}, err
	}
	if err := Bake(ctx, src, f, opts...); err != nil {
		_ = f.Close()
		return Manifest{}, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return Manifest{}, err
	}

	m, err := NewManifest(f)
	if err != nil {
		_ = f.Close()
		return Manifest{}, err
	}
	m.Source = filepath.Base(srcPath)
	if err := f.Close(); err != nil {
		return Manifest{}, err
	}
	vtex.Logger().Info("bake: tile file written", "path", outPath, "pages", m.PageCount, "digest", m.Digest)
	return m, nil
}
