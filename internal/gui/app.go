// Main application window wiring the filter backends to the front end
package gui

import (
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"pixelbench/internal/algorithms"
	"pixelbench/internal/core"
	"pixelbench/internal/io"
	"pixelbench/internal/memory"
	"pixelbench/internal/metrics"
)

// Config selects the loader and the raw heap limits.
type Config struct {
	Loader string
	Heap   memory.Config
}

func DefaultConfig() Config {
	return Config{
		Loader: io.LoaderNative,
		Heap:   memory.DefaultConfig(),
	}
}

// Application owns the window and both backends. All fields are touched on
// the UI thread only; filter jobs run on a goroutine and hand their results
// back through fyne.Do. The running flag keeps jobs strictly sequential
// because the raw backend's heap is not safe for concurrent use.
type Application struct {
	app       fyne.App
	window    fyne.Window
	logger    logrus.FieldLogger
	debugMode bool

	loader   io.Loader
	managed  *algorithms.ManagedBackend
	raw      *algorithms.RawBackend
	original core.Image
	result   core.Image
	running  bool

	canvas      *ImageCanvas
	controls    *ControlPanel
	info        *InfoPanel
	menuHandler *MenuHandler
	status      *widget.Label
}

func NewApplication(app fyne.App, config Config, logger logrus.FieldLogger, debugMode bool) (*Application, error) {
	loader, err := io.NewLoader(config.Loader, logger)
	if err != nil {
		return nil, err
	}
	heap, err := memory.NewHeap(config.Heap, logger)
	if err != nil {
		return nil, err
	}

	window := app.NewWindow("Pixel Bench")
	window.Resize(fyne.NewSize(1400, 900))
	window.CenterOnScreen()

	a := &Application{
		app:       app,
		window:    window,
		logger:    logger,
		debugMode: debugMode,
		loader:    loader,
		managed:   algorithms.NewManagedBackend(),
		raw:       algorithms.NewRawBackend(heap, logger),
	}

	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()
	return a, nil
}

func (a *Application) initializeGUI() {
	a.canvas = NewImageCanvas(a.logger)
	a.controls = NewControlPanel(a.logger)
	a.info = NewInfoPanel()
	a.menuHandler = NewMenuHandler(a.window, a.loader, func() (core.Image, bool) {
		return a.result, a.result.Pix != nil
	}, a.logger)
	a.status = widget.NewLabel("Open an image or use the test pattern")
}

func (a *Application) setupLayout() {
	left := container.NewVScroll(a.controls.GetContainer())
	right := a.info.GetContainer()

	centerAndRight := container.NewHSplit(a.canvas.GetContainer(), right)
	centerAndRight.SetOffset(0.6)

	main := container.NewHSplit(left, centerAndRight)
	main.SetOffset(0.2)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(container.NewBorder(nil, a.status, nil, nil, main))
}

func (a *Application) setupCallbacks() {
	a.menuHandler.SetCallbacks(
		func(img core.Image, path string) {
			a.setImage(img, filepath.Base(path))
		},
		func(path string) {
			a.updateStatusMessage(fmt.Sprintf("Saved: %s", path))
		},
	)
	a.controls.SetCallbacks(a.applyFilter, a.runBenchmark, func() {
		a.setImage(core.Gradient(640, 480), "test pattern")
	})
}

// setImage makes img the current source.
func (a *Application) setImage(img core.Image, name string) {
	a.original = img
	a.result = core.Image{}
	a.canvas.SetOriginal(img, name)
	a.controls.SetImageLoaded(true)
	a.info.Clear()
	a.info.UpdateImageInfo(img.Metadata().String())
	a.updateStatusMessage(fmt.Sprintf("Loaded: %s (%s)", name, img.Resolution()))
	a.logger.WithFields(logrus.Fields{
		"name":       name,
		"resolution": img.Resolution(),
	}).Info("Image set")
}

func (a *Application) backend(name string) algorithms.Backend {
	if name == algorithms.ManagedBackendName {
		return a.managed
	}
	return a.raw
}

// startJob claims the single job slot. It returns false while another job
// runs.
func (a *Application) startJob(message string) bool {
	if a.running {
		a.updateStatusMessage("Busy, wait for the current job to finish")
		return false
	}
	a.running = true
	a.controls.SetRunning(true)
	a.updateStatusMessage(message)
	return true
}

func (a *Application) finishJob() {
	a.running = false
	a.controls.SetRunning(false)
	a.info.UpdateHeap(a.raw.Heap().Stats())
}

func (a *Application) applyFilter(filter, backendName string) {
	if !a.startJob(fmt.Sprintf("Applying %s on %s...", filter, backendName)) {
		return
	}
	src := a.original
	b := a.backend(backendName)

	go func() {
		start := time.Now()
		out, err := algorithms.Apply(b, filter, src)
		elapsed := time.Since(start)

		fyne.Do(func() {
			defer a.finishJob()
			if err != nil {
				a.showError("Filter Failed", err)
				return
			}
			a.result = out
			caption := fmt.Sprintf("%s on %s, %.3f ms", filter, backendName, metrics.Millis(elapsed))
			a.canvas.SetResult(out, caption)
			a.updateStatusMessage(caption)
		})
	}()
}

func (a *Application) runBenchmark(iterations int) {
	if !a.startJob(fmt.Sprintf("Benchmarking %d iterations...", iterations)) {
		return
	}
	src := a.original

	config := metrics.DefaultConfig()
	config.Iterations = iterations
	h, err := metrics.NewHarness(a.managed, a.raw, config,
		metrics.WithLogger(a.logger),
		metrics.WithProgress(func(done, total int) {
			fyne.Do(func() { a.controls.SetProgress(done, total) })
		}),
	)
	if err != nil {
		a.finishJob()
		a.showError("Benchmark Failed", err)
		return
	}

	go func() {
		records, err := h.Run(src)
		fyne.Do(func() {
			defer a.finishJob()
			a.info.UpdateRecords(records)
			if err != nil {
				a.showError("Benchmark Failed", err)
				return
			}
			a.updateStatusMessage(fmt.Sprintf("Benchmark complete: %d filters on %s", len(records), src.Resolution()))
		})
	}()
}

func (a *Application) updateStatusMessage(message string) {
	a.status.SetText(message)
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")
	a.window.ShowAndRun()
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}
