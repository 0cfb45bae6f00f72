// Package cli implements the pixelbench subcommands.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"pixelbench/internal/core"
	pbio "pixelbench/internal/io"
	"pixelbench/internal/logging"
	"pixelbench/internal/memory"
)

// flag names
const (
	debugFlagName   = "debug"
	heapMaxFlagName = "heap-max"
	loaderFlagName  = "loader"
	inputFlagName   = "input"
	sizeFlagName    = "size"
	patternFlagName = "pattern"
)

// GlobalFlags are accepted before any subcommand.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    debugFlagName,
			Usage:   "verbose text logging",
			EnvVars: []string{"PIXELBENCH_DEBUG"},
		},
		&cli.StringFlag{
			Name:    heapMaxFlagName,
			Value:   humanize.IBytes(memory.DefaultMaxBytes),
			Usage:   "growth ceiling of the raw backend heap",
			EnvVars: []string{"PIXELBENCH_HEAP_MAX"},
		},
		&cli.StringFlag{
			Name:    loaderFlagName,
			Value:   pbio.LoaderNative,
			Usage:   "image loader, native or opencv",
			EnvVars: []string{"PIXELBENCH_LOADER"},
		},
	}
}

// inputFlags select a file or a synthetic image.
func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    inputFlagName,
			Aliases: []string{"i"},
			Usage:   "image file to process",
		},
		&cli.StringFlag{
			Name:  sizeFlagName,
			Value: "640x480",
			Usage: "size of the synthetic image used when no input is given",
		},
		&cli.StringFlag{
			Name:  patternFlagName,
			Value: "gradient",
			Usage: "synthetic pattern: gradient, checkerboard or white",
		},
	}
}

// commonCmd holds state shared by every subcommand.
type commonCmd struct {
	logger *logrus.Logger
	loader pbio.Loader
	heap   memory.Config
	out    io.Writer
}

func (c *commonCmd) init(ctx *cli.Context) error {
	c.logger = logging.New(ctx.Bool(debugFlagName))
	c.logger.SetOutput(ctx.App.ErrWriter)
	c.out = ctx.App.Writer

	maxBytes, err := humanize.ParseBytes(ctx.String(heapMaxFlagName))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", heapMaxFlagName, err)
	}
	c.heap = memory.DefaultConfig()
	c.heap.MaxBytes = int(maxBytes)
	if err := c.heap.Validate(); err != nil {
		return fmt.Errorf("invalid --%s: %w", heapMaxFlagName, err)
	}

	c.loader, err = pbio.NewLoader(ctx.String(loaderFlagName), c.logger)
	return err
}

// loadInput reads --input, or builds the synthetic image described by --size
// and --pattern.
func (c *commonCmd) loadInput(ctx *cli.Context) (core.Image, string, error) {
	if path := ctx.String(inputFlagName); path != "" {
		img, err := c.loader.LoadImage(path)
		return img, path, err
	}

	w, h, err := parseSize(ctx.String(sizeFlagName))
	if err != nil {
		return core.Image{}, "", err
	}
	pattern := ctx.String(patternFlagName)
	var img core.Image
	switch pattern {
	case "gradient":
		img = core.Gradient(w, h)
	case "checkerboard":
		img = core.Checkerboard(w, h, 8)
	case "white":
		img = core.Solid(w, h, [4]byte{255, 255, 255, 255})
	default:
		return core.Image{}, "", fmt.Errorf("unknown pattern %q", pattern)
	}
	return img, pattern, nil
}

// parseSize parses WIDTHxHEIGHT.
func parseSize(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT: %w", s, err)
	}
	if w < 0 || h < 0 {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, core.ErrInvalidDimensions)
	}
	return w, h, nil
}
