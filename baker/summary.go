package baker

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary renders one row per result. styled enables box drawing and
// colors for terminals.
func RenderSummary(results []*Result, styled bool) string {
	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.AppendHeader(table.Row{"Animation", "Source", "Status", "Frames", "Output"})
	for _, r := range results {
		status := r.Status.String()
		if styled {
			if r.Err != nil {
				status = text.FgRed.Sprint(status)
			} else {
				status = text.FgGreen.Sprint(status)
			}
		}
		frames := ""
		if r.Frames > 0 {
			frames = strconv.Itoa(r.Frames)
		}
		tw.AppendRow(table.Row{r.Entry.Name, r.Entry.File, status, frames, r.OutputPath})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
