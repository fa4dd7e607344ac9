package output

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable prints a pretty table to w.
func RenderTable(w io.Writer, headers []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}

// RenderFields prints one key/value pair per row.
func RenderFields(w io.Writer, fields [][2]string) {
	rows := make([][]interface{}, len(fields))
	for i, f := range fields {
		rows[i] = []interface{}{f[0], f[1]}
	}
	RenderTable(w, []string{"Field", "Value"}, rows)
}
