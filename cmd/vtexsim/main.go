// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command vtexsim drives a virtual texture headlessly with synthetic
// feedback: a camera pans across the texture while zooming in and out, and
// every frame the feedback is decoded and handed to the scheduler.
//
// Usage:
//
//	vtexsim [-frames 120] [-config vtex.json] [-atlas atlas.png] world.vt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"

	"github.com/gogpu/vtex"
	"github.com/gogpu/vtex/feedback"
	"github.com/gogpu/vtex/shaders"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "vtexsim:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("vtexsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		frames     = fs.Int("frames", 120, "number of frames to simulate")
		size       = fs.Int("feedback", 64, "feedback target edge in texels")
		configPath = fs.String("config", "", "JSON engine configuration")
		atlasOut   = fs.String("atlas", "", "write the final atlas to this PNG")
		sync       = fs.Bool("sync", true, "wait for loads at the end of every frame")
		compile    = fs.Bool("shaders", false, "compile the WGSL passes and report their size")
		verbose    = fs.Bool("v", false, "verbose logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected one tile file")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	vtex.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	if *compile {
		mods, err := shaders.CompileAll()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "shaders: feedback %d words, final %d words\n", len(mods.Feedback), len(mods.Final))
	}

	cfg := vtex.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = vtex.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	vt, err := vtex.Open(fs.Arg(0), cfg.Options()...)
	if err != nil {
		return err
	}
	defer func() { _ = vt.Close() }()

	dec := feedback.NewDecoder(vt.Indexer())
	cam := camera{pageTableSize: vt.Indexer().PageTableSize(), maxMip: vt.Indexer().MipCount() - 1}
	pixels := make([]byte, *size**size*4)

	for f := range *frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		cam.render(pixels, *size, f, vt.MipBias())
		dec.Clear()
		if err := dec.Decode(pixels, *size, *size); err != nil {
			return err
		}
		st, err := vt.Update(dec.Counts())
		if err != nil {
			return err
		}
		if *sync {
			vt.WaitIdle()
		}
		if *verbose || f%30 == 0 {
			fmt.Fprintf(stdout, "frame %4d: requested %3d touched %3d missing %3d submitted %d applied %d bias %d\n",
				f, st.Requested, st.Touched, st.Missing, st.Submitted, st.Applied, st.MipBias)
		}
	}

	s := vt.Stats()
	fmt.Fprintf(stdout, "done: %d frames, %d/%d resident, %d loads, %d evictions, %d failed, hit rate %.2f\n",
		s.Frames, s.Cache.Resident, s.Cache.Capacity, s.Cache.Loads, s.Cache.Evictions, s.Loader.Failed,
		hitRate(s.Cache))

	if *atlasOut != "" {
		tex := vt.Atlas()
		if tex == nil {
			return errors.New("no in-memory atlas to write")
		}
		if err := tex.SavePNG(0, *atlasOut); err != nil {
			return err
		}
	}
	return nil
}

func hitRate(s vtex.CacheStats) float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// camera produces feedback for a view that pans along a circle and zooms
// between the finest and the coarsest mip.
type camera struct {
	pageTableSize int
	maxMip        int
}

// render fills pixels with the feedback texels of frame.
func (c camera) render(pixels []byte, size, frame, mipBias int) {
	t := float64(frame) / 60
	cx := 0.5 + 0.3*math.Cos(t)
	cy := 0.5 + 0.3*math.Sin(t)
	zoom := (math.Sin(t*0.5) + 1) / 2 * float64(c.maxMip)
	span := math.Exp2(zoom) / float64(c.pageTableSize) * 4

	for j := range size {
		for i := range size {
			u := cx + (float64(i)/float64(size)-0.5)*span
			v := cy + (float64(j)/float64(size)-0.5)*span
			px := pixels[(j*size+i)*4:]
			if u < 0 || u >= 1 || v < 0 || v >= 1 {
				px[0], px[1], px[2], px[3] = 0, 0, 0, 0
				continue
			}

			// Texels farther from the view centre sample coarser mips.
			d := math.Hypot(float64(i)/float64(size)-0.5, float64(j)/float64(size)-0.5)
			mip := min(max(int(zoom+d*2)+mipBias, 0), c.maxMip)
			pages := c.pageTableSize >> mip
			x := min(int(u*float64(pages)), pages-1)
			y := min(int(v*float64(pages)), pages-1)
			px[0], px[1], px[2], px[3] = uint8(x), uint8(y), uint8(mip), 255
		}
	}
}
