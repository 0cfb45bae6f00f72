// package main is the pixelbench command line interface.
package main

import (
	"fmt"
	"os"

	pbcli "pixelbench/cmd/pixelbench/cli"
)

func main() {
	if err := pbcli.NewApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
