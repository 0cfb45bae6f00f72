// internal/gui/control_panel.go
// Filter, backend and benchmark controls
package gui

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"pixelbench/internal/algorithms"
	"pixelbench/internal/metrics"
)

type ControlPanel struct {
	logger logrus.FieldLogger

	container *fyne.Container

	filterSelect  *widget.Select
	backendSelect *widget.Select
	description   *widget.Label
	iterations    *widget.Entry
	applyBtn      *widget.Button
	benchBtn      *widget.Button
	sampleBtn     *widget.Button
	progress      *widget.ProgressBar

	hasImage bool
	running  bool

	onApply     func(filter, backend string)
	onBenchmark func(iterations int)
	onSample    func()
}

func NewControlPanel(logger logrus.FieldLogger) *ControlPanel {
	panel := &ControlPanel{logger: logger}
	panel.initializeUI()
	return panel
}

func (cp *ControlPanel) initializeUI() {
	cp.description = widget.NewLabel("")
	cp.description.Wrapping = fyne.TextWrapWord

	cp.filterSelect = widget.NewSelect(algorithms.Names(), func(name string) {
		if d, ok := algorithms.Lookup(name); ok {
			cp.description.SetText(fmt.Sprintf("%s (%s)", d.Description, d.Style))
		}
	})
	cp.filterSelect.SetSelected(algorithms.Grayscale)

	cp.backendSelect = widget.NewSelect(algorithms.BackendNames(), nil)
	cp.backendSelect.SetSelected(algorithms.RawBackendName)

	cp.iterations = widget.NewEntry()
	cp.iterations.SetText(strconv.Itoa(metrics.DefaultIterations))
	cp.iterations.Validator = func(s string) error {
		_, err := parseIterations(s)
		return err
	}

	cp.applyBtn = widget.NewButtonWithIcon("Apply filter", theme.MediaPlayIcon(), func() {
		if cp.onApply != nil {
			cp.onApply(cp.filterSelect.Selected, cp.backendSelect.Selected)
		}
	})
	cp.benchBtn = widget.NewButtonWithIcon("Run benchmark", theme.MediaFastForwardIcon(), func() {
		n, err := parseIterations(cp.iterations.Text)
		if err != nil {
			cp.logger.WithError(err).Warn("Invalid iteration count")
			return
		}
		if cp.onBenchmark != nil {
			cp.onBenchmark(n)
		}
	})
	cp.benchBtn.Importance = widget.HighImportance
	cp.sampleBtn = widget.NewButtonWithIcon("Use test pattern", theme.GridIcon(), func() {
		if cp.onSample != nil {
			cp.onSample()
		}
	})

	cp.progress = widget.NewProgressBar()
	cp.progress.Hide()

	form := widget.NewForm(
		widget.NewFormItem("Filter", cp.filterSelect),
		widget.NewFormItem("Backend", cp.backendSelect),
		widget.NewFormItem("Iterations", cp.iterations),
	)

	cp.container = container.NewVBox(
		widget.NewCard("Filter", "", container.NewVBox(form, cp.description)),
		cp.applyBtn,
		cp.benchBtn,
		cp.progress,
		widget.NewSeparator(),
		cp.sampleBtn,
	)
	cp.updateButtons()
}

func parseIterations(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("iterations must be a positive integer")
	}
	return n, nil
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func (cp *ControlPanel) SetCallbacks(onApply func(filter, backend string), onBenchmark func(iterations int), onSample func()) {
	cp.onApply = onApply
	cp.onBenchmark = onBenchmark
	cp.onSample = onSample
}

// SetImageLoaded enables the actions that need an image.
func (cp *ControlPanel) SetImageLoaded(loaded bool) {
	cp.hasImage = loaded
	cp.updateButtons()
}

// SetRunning disables every action while a job runs.
func (cp *ControlPanel) SetRunning(running bool) {
	cp.running = running
	if running {
		cp.progress.SetValue(0)
		cp.progress.Show()
	} else {
		cp.progress.Hide()
	}
	cp.updateButtons()
}

// SetProgress shows the fraction of filters benchmarked so far.
func (cp *ControlPanel) SetProgress(done, total int) {
	if total > 0 {
		cp.progress.SetValue(float64(done) / float64(total))
	}
}

func (cp *ControlPanel) updateButtons() {
	for _, b := range []*widget.Button{cp.applyBtn, cp.benchBtn} {
		if cp.hasImage && !cp.running {
			b.Enable()
		} else {
			b.Disable()
		}
	}
	if cp.running {
		cp.sampleBtn.Disable()
	} else {
		cp.sampleBtn.Enable()
	}
}
