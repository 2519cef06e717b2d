// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shaders holds the WGSL sources of the two virtual texture passes
// and their uniform layouts.
//
// The feedback pass renders the scene into a small RGBA8 target whose
// texels name the page each fragment needs; package feedback decodes it.
// The final pass samples the atlas through the indirection texture built by
// vtex.PageTable.
package shaders

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/naga"
	"github.com/gogpu/vtex/tilefile"
)

// FeedbackWGSL is the feedback pass (vs_main, fs_main).
//
//go:embed feedback.wgsl
var FeedbackWGSL string

// FinalWGSL is the final lookup pass (vs_main, fs_main).
//
//go:embed final.wgsl
var FinalWGSL string

// Uniform buffer sizes in bytes.
const (
	FeedbackParamsSize = 80
	FinalParamsSize    = 96
)

// Modules holds compiled SPIR-V for both passes.
type Modules struct {
	Feedback []uint32
	Final    []uint32
}

// Compile compiles WGSL source to SPIR-V words.
func Compile(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shaders: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shaders: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// CompileAll compiles both passes.
func CompileAll() (Modules, error) {
	fb, err := Compile(FeedbackWGSL)
	if err != nil {
		return Modules{}, fmt.Errorf("feedback pass: %w", err)
	}
	final, err := Compile(FinalWGSL)
	if err != nil {
		return Modules{}, fmt.Errorf("final pass: %w", err)
	}
	return Modules{Feedback: fb, Final: final}, nil
}

// FeedbackParams mirrors the FeedbackParams uniform.
type FeedbackParams struct {
	MVP                [16]float32
	VirtualTextureSize float32
	PageTableSize      float32
	MaxMip             float32
	MipBias            float32
}

// NewFeedbackParams fills the texture-dependent fields from hdr.
func NewFeedbackParams(hdr tilefile.Header, mvp [16]float32, mipBias int) FeedbackParams {
	return FeedbackParams{
		MVP:                mvp,
		VirtualTextureSize: float32(hdr.VirtualTextureSize),
		PageTableSize:      float32(hdr.PageTableSize()),
		MaxMip:             float32(hdr.MipCount() - 1),
		MipBias:            float32(mipBias),
	}
}

// Bytes encodes p in uniform buffer layout.
func (p FeedbackParams) Bytes() []byte {
	buf := make([]byte, 0, FeedbackParamsSize)
	buf = appendFloats(buf, p.MVP[:]...)
	return appendFloats(buf, p.VirtualTextureSize, p.PageTableSize, p.MaxMip, p.MipBias)
}

// FinalParams mirrors the FinalParams uniform.
type FinalParams struct {
	FeedbackParams
	PageSize   float32
	BorderSize float32
	AtlasSize  float32
}

// NewFinalParams fills the texture-dependent fields from hdr and the atlas
// edge length in texels.
func NewFinalParams(hdr tilefile.Header, mvp [16]float32, mipBias, atlasSize int) FinalParams {
	return FinalParams{
		FeedbackParams: NewFeedbackParams(hdr, mvp, mipBias),
		PageSize:       float32(hdr.PageSize()),
		BorderSize:     float32(hdr.BorderSize),
		AtlasSize:      float32(atlasSize),
	}
}

// Bytes encodes p in uniform buffer layout.
func (p FinalParams) Bytes() []byte {
	buf := make([]byte, 0, FinalParamsSize)
	buf = append(buf, p.FeedbackParams.Bytes()...)
	return appendFloats(buf, p.PageSize, p.BorderSize, p.AtlasSize, 0)
}

func appendFloats(buf []byte, vs ...float32) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
