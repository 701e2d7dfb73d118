package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dbbridge/pkg/driveradapter"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatAuto     = "auto"
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatYAML     = "yaml"
)

// resolveFormat picks table for terminals and markdown otherwise when the
// format is auto.
func resolveFormat(w io.Writer, format string) string {
	switch format {
	case "", FormatAuto:
		if f, ok := w.(*os.File); ok && isTerminal(f) {
			return FormatTable
		}
		return FormatMarkdown
	case "markdown":
		return FormatMarkdown
	case "yml":
		return FormatYAML
	}
	return format
}

func renderResultSet(w io.Writer, rs *driveradapter.ResultSet, format string) error {
	switch resolveFormat(w, format) {
	case FormatJSON:
		return renderJSON(w, rs)
	case FormatYAML:
		return renderYAML(w, rs)
	case FormatCSV:
		newTableWriter(w, rs).RenderCSV()
		return nil
	case FormatMarkdown:
		if len(rs.Rows) == 0 {
			_, _ = fmt.Fprintln(w, "(0 rows)")
			return nil
		}
		newTableWriter(w, rs).RenderMarkdown()
		return nil
	case FormatTable:
		if len(rs.Rows) == 0 {
			_, _ = fmt.Fprintln(w, "(0 rows)")
			return nil
		}
		newTableWriter(w, rs).Render()
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use table, json, csv, md or yaml)", format)
	}
}

func newTableWriter(w io.Writer, rs *driveradapter.ResultSet) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(rs.ColumnNames))
	for i, col := range rs.ColumnNames {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, values := range rs.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}
	return t
}

func renderJSON(w io.Writer, rs *driveradapter.ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

// renderYAML emits one mapping per row, keyed by column name.
func renderYAML(w io.Writer, rs *driveradapter.ResultSet) error {
	docs := make([]*yaml.Node, 0, len(rs.Rows))
	for _, values := range rs.Rows {
		node := &yaml.Node{Kind: yaml.MappingNode}
		for i, v := range values {
			val := &yaml.Node{}
			if err := val.Encode(yamlValue(v)); err != nil {
				return fmt.Errorf("failed to encode column %s: %w", rs.ColumnNames[i], err)
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rs.ColumnNames[i]},
				val,
			)
		}
		docs = append(docs, node)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(docs)
}

func yamlValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		// Convert []byte to string for readability
		return string(val)
	}
	return fmt.Sprintf("%v", v)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
