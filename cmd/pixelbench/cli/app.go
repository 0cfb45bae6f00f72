package cli

import (
	"github.com/urfave/cli/v2"
)

// NewApp returns the pixelbench application with every subcommand.
func NewApp() *cli.App {
	return &cli.App{
		Name:        "pixelbench",
		Usage:       "compare managed and raw-memory pixel filters",
		Description: "pixelbench runs grayscale, Gaussian blur and Sobel filters on a managed backend and on a raw linear-memory backend, checks that both agree and times them.",
		Flags:       GlobalFlags(),
		Commands: []*cli.Command{
			BenchCommand(),
			ApplyCommand(),
			VerifyCommand(),
		},
	}
}
