package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rivo/uniseg"
)

// tableColumn represents a column in a table
type tableColumn struct {
	Header string
	Key    string // key to extract from data map
	Width  int    // calculated width
}

// renderTable renders a table with dynamic column width calculation. Widths
// are measured in terminal cells.
func renderTable(w io.Writer, columns []tableColumn, data []map[string]any) {
	if len(data) == 0 {
		fmt.Fprintln(w, "No data to display")
		return
	}

	for i := range columns {
		columns[i].Width = uniseg.StringWidth(columns[i].Header)
		for _, row := range data {
			if value, exists := row[columns[i].Key]; exists {
				if n := uniseg.StringWidth(fmt.Sprint(value)); n > columns[i].Width {
					columns[i].Width = n
				}
			}
		}
	}

	headerParts := make([]string, 0, len(columns))
	separatorParts := make([]string, 0, len(columns))
	for _, col := range columns {
		headerParts = append(headerParts, pad(col.Header, col.Width))
		separatorParts = append(separatorParts, strings.Repeat("-", col.Width))
	}
	writeRow(w, headerParts)
	writeRow(w, separatorParts)

	for _, row := range data {
		rowParts := make([]string, 0, len(columns))
		for _, col := range columns {
			value := ""
			if v, exists := row[col.Key]; exists {
				value = fmt.Sprint(v)
			}
			rowParts = append(rowParts, pad(value, col.Width))
		}
		writeRow(w, rowParts)
	}
}

func writeRow(w io.Writer, parts []string) {
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " "), " "))
}

func pad(s string, width int) string {
	if n := uniseg.StringWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
