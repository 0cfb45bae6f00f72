package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"pixelbench/internal/algorithms"
)

// TableHeader is the column order of WriteTable.
var TableHeader = []string{"Filter", "Resolution", "Iterations", "Baseline (ms)", "Optimized (ms)", "Speedup", "Identical"}

// TableRow formats a record for tabular output.
func TableRow(r Record) []string {
	return []string{
		r.FilterName,
		r.Resolution,
		strconv.Itoa(r.Iterations),
		fmt.Sprintf("%.3f", r.BaselineMeanMs),
		fmt.Sprintf("%.3f", r.OptimizedMeanMs),
		fmt.Sprintf("%.2fx", r.Speedup),
		strconv.FormatBool(r.Identical),
	}
}

// WriteTable renders records as an ASCII table. With phases set, a second
// table lists the optimized backend's per-phase means.
func WriteTable(w io.Writer, records []Record, phases bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(TableHeader)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, r := range records {
		table.Append(TableRow(r))
	}
	table.Render()

	if !phases {
		return
	}
	header := []string{"Filter"}
	for _, p := range algorithms.Phases {
		header = append(header, p.String()+" (ms)")
	}
	pt := tablewriter.NewWriter(w)
	pt.SetHeader(header)
	pt.SetAutoFormatHeaders(false)
	pt.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, r := range records {
		if len(r.Phases) == 0 {
			continue
		}
		row := []string{r.FilterName}
		for _, p := range algorithms.Phases {
			row = append(row, fmt.Sprintf("%.4f", r.Phases[p.String()]))
		}
		pt.Append(row)
	}
	pt.Render()
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
