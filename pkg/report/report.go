package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/json-iterator/go"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/olekukonko/tablewriter"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	FormatTable = "table"
	FormatText  = "text"
	FormatJSON  = "json"
)

var Formats = map[string]bool{
	FormatTable: true,
	FormatText:  true,
	FormatJSON:  true,
}

func FormatsList() []string {
	allowed := make([]string, 0)
	for k := range Formats {
		allowed = append(allowed, k)
	}
	sort.Strings(allowed)
	return allowed
}

func CheckFormat(format string) error {
	if !Formats[format] {
		return fmt.Errorf("Unknown format %q. Allowed values: %v", format, strings.Join(FormatsList(), ", "))
	}
	return nil
}

// Render writes entries to w in the given format. Entries are written in the
// order they are given.
func Render(w io.Writer, format string, entries []profiler.Entry, pretty bool) error {
	switch format {
	case FormatTable:
		return renderTable(w, entries)
	case FormatText:
		return renderText(w, entries)
	case FormatJSON:
		return renderJSON(w, entries, pretty)
	}
	return CheckFormat(format)
}

func renderTable(w io.Writer, entries []profiler.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No profiled calls.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Name", "Calls", "Total", "Mean")
	for _, e := range entries {
		if err := table.Append(
			e.Name,
			fmt.Sprintf("%d", e.Count),
			e.TotalDuration.String(),
			e.Mean().String(),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderText(w io.Writer, entries []profiler.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%v = %v (%v calls)\n", e.Name, e.TotalDuration, e.Count); err != nil {
			return err
		}
	}
	return nil
}

func renderJSON(w io.Writer, entries []profiler.Entry, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ContentType returns the HTTP content type matching format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
