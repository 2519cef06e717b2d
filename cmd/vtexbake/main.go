// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command vtexbake builds and inspects virtual texture tile files.
//
// Usage:
//
//	vtexbake bake -src world.png -out world.vt [-size 65536] [-tile 128] [-border 4]
//	vtexbake verify -manifest world.json world.vt
//	vtexbake info world.vt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/image/draw"

	"github.com/gogpu/vtex"
	"github.com/gogpu/vtex/bake"
	"github.com/gogpu/vtex/tilefile"
)

var errUsage = errors.New("usage: vtexbake bake|verify|info [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "vtexbake:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "bake":
		return runBake(ctx, args[1:], stdout, stderr)
	case "verify":
		return runVerify(args[1:], stdout, stderr)
	case "info":
		return runInfo(args[1:], stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q; %w", args[0], errUsage)
	}
}

// setupLogging routes vtex logs to stderr at info, or debug with -v.
func setupLogging(stderr io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	vtex.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
}

var scalers = map[string]draw.Scaler{
	"nearest":    draw.NearestNeighbor,
	"approx":     draw.ApproxBiLinear,
	"bilinear":   draw.BiLinear,
	"catmullrom": draw.CatmullRom,
}

func runBake(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bake", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		src      = fs.String("src", "", "source image (png, jpeg, bmp, tiff, webp)")
		out      = fs.String("out", "", "output tile file")
		manifest = fs.String("manifest", "", "manifest path (default: <out>.json)")
		size     = fs.Int("size", 0, "virtual texture size in texels (default: source width)")
		tile     = fs.Int("tile", 128, "tile size in texels without border")
		border   = fs.Int("border", 4, "border size in texels")
		filter   = fs.String("filter", "catmullrom", "scaling filter: nearest, approx, bilinear, catmullrom")
		workers  = fs.Int("workers", 0, "tile cutting goroutines (default: GOMAXPROCS)")
		verbose  = fs.Bool("v", false, "verbose logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *src == "" || *out == "" {
		return errors.New("bake: -src and -out are required")
	}
	scaler, ok := scalers[strings.ToLower(*filter)]
	if !ok {
		return fmt.Errorf("bake: unknown filter %q", *filter)
	}
	setupLogging(stderr, *verbose)

	if *size == 0 {
		img, _, err := bake.LoadImage(*src)
		if err != nil {
			return err
		}
		*size = img.Bounds().Dx()
	}
	hdr := tilefile.Header{VirtualTextureSize: *size, TileSize: *tile, BorderSize: *border}
	if err := hdr.Validate(); err != nil {
		return err
	}

	m, err := bake.BakeFile(ctx, *src, *out, hdr,
		bake.WithScaler(scaler),
		bake.WithWorkers(*workers),
		bake.WithProgress(func(done, total int) {
			vtex.Logger().Info("bake: progress", "tiles", done, "total", total)
		}))
	if err != nil {
		return err
	}

	if *manifest == "" {
		*manifest = *out + ".json"
	}
	if err := bake.WriteManifest(*manifest, m); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d pages, digest %s\n", *out, m.PageCount, m.Digest)
	return nil
}

func runVerify(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	manifest := fs.String("manifest", "", "manifest path (default: <file>.json)")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("verify: expected one tile file")
	}
	setupLogging(stderr, *verbose)

	path := fs.Arg(0)
	if *manifest == "" {
		*manifest = path + ".json"
	}
	m, err := bake.ReadManifest(*manifest)
	if err != nil {
		return err
	}
	if err := bake.VerifyFile(path, m); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: ok\n", path)
	return nil
}

func runInfo(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("info: expected one tile file")
	}

	f, err := tilefile.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	hdr := f.Header()
	fmt.Fprintf(stdout, "virtual texture size: %d\n", hdr.VirtualTextureSize)
	fmt.Fprintf(stdout, "tile size:            %d (+%d border)\n", hdr.TileSize, hdr.BorderSize)
	fmt.Fprintf(stdout, "page table size:      %d\n", hdr.PageTableSize())
	fmt.Fprintf(stdout, "mip levels:           %d\n", hdr.MipCount())
	fmt.Fprintf(stdout, "pages:                %d\n", hdr.PageCount())
	fmt.Fprintf(stdout, "tile bytes:           %d\n", hdr.TileBytes())
	return nil
}
