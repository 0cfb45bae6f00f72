// Pixel Bench desktop application

package main

import (
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"pixelbench/internal/gui"
	"pixelbench/internal/logging"
)

const (
	AppName    = "Pixel Bench"
	AppID      = "io.pixelbench.desktop"
	AppVersion = "1.0.0"
)

func main() {
	config := gui.DefaultConfig()

	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	loader := flag.String("loader", config.Loader, "Image loader: native or opencv")
	heapMax := flag.String("heap-max", humanize.IBytes(uint64(config.Heap.MaxBytes)), "Growth ceiling of the raw backend heap")
	flag.Parse()

	logger := logging.New(*debugMode)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
	}).Info("Starting " + AppName)

	maxBytes, err := humanize.ParseBytes(*heapMax)
	if err != nil {
		logger.WithError(err).Fatal("Invalid -heap-max")
	}
	config.Loader = *loader
	config.Heap.MaxBytes = int(maxBytes)

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.GridIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp, err := gui.NewApplication(myApp, config, logger, *debugMode)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create application")
	}
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}
