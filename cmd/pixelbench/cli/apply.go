package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"pixelbench/internal/algorithms"
)

// flag names
const (
	filterFlagName  = "filter"
	backendFlagName = "backend"
	outputFlagName  = "output"
)

// applyCmd runs one filter once and writes the result.
type applyCmd struct {
	commonCmd
	filters []string
	backend string
	output  string
}

// ApplyCommand returns a [*cli.Command] that filters one image.
func ApplyCommand() *cli.Command {
	cmd := &applyCmd{}
	return &cli.Command{
		Name:        "apply",
		Usage:       "pixelbench apply --filter sobel --input in.png --output out.png",
		Description: "apply runs filters in the given order on one backend and saves the result.",
		Flags:       cmd.flags(),
		Action:      cmd.action,
	}
}

func (cmd *applyCmd) flags() []cli.Flag {
	fl := []cli.Flag{
		&cli.StringSliceFlag{
			Name:     filterFlagName,
			Aliases:  []string{"f"},
			Usage:    fmt.Sprintf("filter to run, repeat to chain; one of %v", algorithms.Names()),
			Required: true,
		},
		&cli.StringFlag{
			Name:        backendFlagName,
			Value:       algorithms.RawBackendName,
			Usage:       fmt.Sprintf("backend, one of %v", algorithms.BackendNames()),
			Destination: &cmd.backend,
		},
		&cli.StringFlag{
			Name:        outputFlagName,
			Aliases:     []string{"o"},
			Usage:       "file to write the result to",
			Required:    true,
			Destination: &cmd.output,
		},
	}
	return append(fl, inputFlags()...)
}

func (cmd *applyCmd) action(ctx *cli.Context) error {
	if err := cmd.init(ctx); err != nil {
		return err
	}
	cmd.filters = ctx.StringSlice(filterFlagName)
	for _, name := range cmd.filters {
		if !algorithms.IsValidFilter(name) {
			return fmt.Errorf("%w: %s", algorithms.ErrUnknownFilter, name)
		}
	}

	backend, err := algorithms.NewBackend(cmd.backend, cmd.heap, cmd.logger)
	if err != nil {
		return err
	}

	img, name, err := cmd.loadInput(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := algorithms.ApplyChain(backend, cmd.filters, img)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := cmd.loader.SaveImage(out, cmd.output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "%s -> %s: %v on %s (%s) in %s\n",
		name, cmd.output, cmd.filters, backend.Name(), out.Resolution(), elapsed.Round(time.Microsecond))
	if raw, ok := backend.(*algorithms.RawBackend); ok {
		st := raw.Heap().Stats()
		fmt.Fprintf(cmd.out, "raw heap: peak %s of %s region, %s allocations\n",
			humanize.IBytes(uint64(st.PeakBytes)), humanize.IBytes(uint64(st.RegionBytes)), humanize.Comma(int64(st.Allocations)))
	}
	return nil
}
