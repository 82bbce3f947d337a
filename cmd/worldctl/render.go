package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/jlvsolutions/WorldCities-sub000/internal/schema"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

func encode(w io.Writer, out output, v any) error {
	if out == outYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cell(t schema.Table, c schema.Column, rec sdk.Record) string {
	if c.Kind == schema.Button {
		return "[" + c.Title() + "]"
	}
	v, _ := rec.Field(c.Key)
	s := schema.Format(v)
	if t.Clickable(c.Key) && s != "" {
		return s + " >"
	}
	return s
}

// renderTable prints rows with the visible columns of t. numbered adds a
// row number column that browse commands refer to.
func renderTable(w io.Writer, t schema.Table, rows []sdk.Record, numbered bool) {
	cols := t.Visible()
	tw := tablewriter.NewWriter(w)
	tw.SetAutoWrapText(false)
	var header []string
	if numbered {
		header = append(header, "#")
	}
	for _, c := range cols {
		title := c.Title()
		if t.Sortable(c.Key) {
			title += " (" + c.Key + ")"
		}
		header = append(header, title)
	}
	tw.SetHeader(header)
	for i, rec := range rows {
		var line []string
		if numbered {
			line = append(line, strconv.Itoa(i+1))
		}
		for _, c := range cols {
			line = append(line, cell(t, c, rec))
		}
		tw.Append(line)
	}
	tw.Render()
}

func renderPage(w io.Writer, t schema.Table, p page, numbered bool) {
	renderTable(w, t, p.Data, numbered)
	fmt.Fprintf(w, "Page %d of %d, %d records, sorted by %s %s", p.PageIndex+1, max(p.TotalPages, 1), p.TotalCount, p.SortColumn, p.SortOrder)
	if p.FilterColumn != nil && p.FilterQuery != nil {
		fmt.Fprintf(w, ", %s starts with %q", *p.FilterColumn, *p.FilterQuery)
	}
	fmt.Fprintln(w)
}

// renderRecord prints one record as key/value lines with tooltips.
func renderRecord(w io.Writer, t schema.Table, rec sdk.Record) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoWrapText(false)
	tw.SetHeader([]string{"Field", "Value", "Note"})
	for _, c := range t.Columns {
		if c.Kind == schema.Button {
			continue
		}
		v, _ := rec.Field(c.Key)
		note, _ := c.Tooltip(rec)
		if t.Clickable(c.Key) {
			if target, err := c.Target(rec); err == nil && target != "" {
				note = target
			}
		}
		tw.Append([]string{c.Title(), schema.Format(v), note})
	}
	tw.Render()
}
