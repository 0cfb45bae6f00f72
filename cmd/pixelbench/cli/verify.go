package cli

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"pixelbench/internal/algorithms"
	"pixelbench/internal/memory"
	"pixelbench/internal/metrics"
)

// verifyCmd checks that both backends produce the same bytes.
type verifyCmd struct {
	commonCmd
}

// VerifyCommand returns a [*cli.Command] for the backend equivalence check.
// It exits with status 1 when any filter output differs.
func VerifyCommand() *cli.Command {
	cmd := &verifyCmd{}
	return &cli.Command{
		Name:        "verify",
		Usage:       "pixelbench verify --input photo.png",
		Description: "verify runs every filter on both backends and compares the outputs byte for byte.",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:  filtersFlagName,
				Value: cli.NewStringSlice(algorithms.Names()...),
				Usage: "filters to check",
			},
		}, inputFlags()...),
		Action: cmd.action,
	}
}

func (cmd *verifyCmd) action(ctx *cli.Context) error {
	if err := cmd.init(ctx); err != nil {
		return err
	}
	filters := ctx.StringSlice(filtersFlagName)
	for _, name := range filters {
		if !algorithms.IsValidFilter(name) {
			return fmt.Errorf("%w: %s", algorithms.ErrUnknownFilter, name)
		}
	}

	img, name, err := cmd.loadInput(ctx)
	if err != nil {
		return err
	}
	heap, err := memory.NewHeap(cmd.heap, cmd.logger)
	if err != nil {
		return err
	}

	evaluator := metrics.NewEvaluator()
	results, err := evaluator.CompareBackends(algorithms.NewManagedBackend(), algorithms.NewRawBackend(heap, cmd.logger), filters, img)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "%s: %s\n", name, img.Metadata())
	table := tablewriter.NewWriter(cmd.out)
	table.SetHeader([]string{"Filter", "Resolution", "Identical", "Differing bytes", "Max diff", "PSNR (dB)"})
	table.SetAutoFormatHeaders(false)
	failed := 0
	for _, r := range results {
		if !r.Identical {
			failed++
		}
		table.Append([]string{
			r.FilterName,
			r.Resolution,
			strconv.FormatBool(r.Identical),
			fmt.Sprintf("%.0f", r.Metrics["differing_bytes"]),
			fmt.Sprintf("%.0f", r.Metrics["max_abs_diff"]),
			fmt.Sprintf("%.2f", r.Metrics["psnr"]),
		})
	}
	table.Render()

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d filters differ between backends", failed, len(results)), 1)
	}
	cmd.logger.WithField("heap", heap.Stats().String()).Debug("Verification passed")
	return nil
}
