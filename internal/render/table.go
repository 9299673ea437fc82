package render

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ytrss/internal/model"
)

func renderTable(w io.Writer, records []model.VideoRecord) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Published", "Duration", "Link"})

	for _, rec := range records {
		duration := ""
		if rec.DurationSeconds != nil {
			duration = clockFormat(*rec.DurationSeconds)
		}
		tw.AppendRow(table.Row{
			rec.ID,
			rec.Title,
			rec.Published.Format("2006-01-02 15:04"),
			duration,
			rec.Link,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	tw.Render()
	return nil
}
