// internal/gui/info_panel.go
// Benchmark results table and raw heap statistics
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"pixelbench/internal/memory"
	"pixelbench/internal/metrics"
)

// InfoPanel lists the records of the last benchmark run.
type InfoPanel struct {
	container *fyne.Container

	table       *widget.Table
	records     []metrics.Record
	summary     *widget.Label
	heapLabel   *widget.Label
	metaLabel   *widget.Label
	resultsCard *widget.Card
}

func NewInfoPanel() *InfoPanel {
	ip := &InfoPanel{}
	ip.initializeUI()
	return ip
}

func (ip *InfoPanel) initializeUI() {
	ip.table = widget.NewTable(
		func() (int, int) {
			return len(ip.records) + 1, len(metrics.TableHeader)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("gaussian_blur")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(metrics.TableHeader[id.Col])
				return
			}
			label.TextStyle = fyne.TextStyle{}
			label.SetText(metrics.TableRow(ip.records[id.Row-1])[id.Col])
		},
	)
	for col := range metrics.TableHeader {
		ip.table.SetColumnWidth(col, 120)
	}

	ip.summary = widget.NewLabel("Run a benchmark to compare the backends.")
	ip.summary.Wrapping = fyne.TextWrapWord
	ip.resultsCard = widget.NewCard("Benchmark", "", container.NewBorder(nil, ip.summary, nil, nil, ip.table))

	ip.heapLabel = widget.NewLabel("Raw heap not initialized")
	ip.heapLabel.Wrapping = fyne.TextWrapWord
	ip.metaLabel = widget.NewLabel("")

	ip.container = container.NewBorder(
		nil,
		container.NewVBox(
			widget.NewCard("Image", "", ip.metaLabel),
			widget.NewCard("Raw heap", "", ip.heapLabel),
		),
		nil, nil,
		ip.resultsCard,
	)
}

func (ip *InfoPanel) GetContainer() fyne.CanvasObject {
	return ip.container
}

// UpdateRecords replaces the table contents. Must run on the UI thread.
func (ip *InfoPanel) UpdateRecords(records []metrics.Record) {
	ip.records = records
	ip.table.Refresh()

	if len(records) == 0 {
		ip.summary.SetText("No results.")
		return
	}
	identical := true
	for _, r := range records {
		identical = identical && r.Identical
	}
	verdict := "outputs identical"
	if !identical {
		verdict = "OUTPUTS DIFFER"
	}
	ip.summary.SetText(fmt.Sprintf("%s, %d iterations, %s", records[0].Resolution, records[0].Iterations, verdict))
}

func (ip *InfoPanel) UpdateHeap(stats memory.Stats) {
	ip.heapLabel.SetText(stats.String())
}

func (ip *InfoPanel) UpdateImageInfo(text string) {
	ip.metaLabel.SetText(text)
}

func (ip *InfoPanel) Clear() {
	ip.UpdateRecords(nil)
	ip.summary.SetText("Run a benchmark to compare the backends.")
}
