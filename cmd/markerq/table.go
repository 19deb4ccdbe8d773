package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// columnAlignment selects cell alignment per column. Count columns (queue
// stats, request IDs) render right-aligned; everything else stays left.
type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(paddedRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(paddedRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       cellAlignment(aligns, i),
			AlignHeader: text.AlignLeft,
		}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// paddedRow converts cells to a table row of exactly width columns, filling
// missing trailing cells with blanks.
func paddedRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

func cellAlignment(aligns []columnAlignment, column int) text.Align {
	if column < len(aligns) && aligns[column] == alignRight {
		return text.AlignRight
	}
	return text.AlignLeft
}
