package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/tbourn/go-movie-catalog/internal/ingest"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderReport prints one row per scraped title followed by the totals.
func renderReport(w io.Writer, r ingest.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"Week", "Title", "IMDb", "TMDb", "Outcome", "Error"})
	for _, o := range r.Outcomes {
		tmdbID := ""
		if o.TMDbID > 0 {
			tmdbID = strconv.FormatInt(o.TMDbID, 10)
		}
		tw.AppendRow(table.Row{o.ReleaseWeek, o.Title, o.IMDbID, tmdbID, string(o.Outcome), o.Error})
	}
	tw.AppendFooter(table.Row{
		"", fmt.Sprintf("%d scraped", r.Scraped), "", "",
		fmt.Sprintf("%d inserted, %d skipped, %d failed", r.Inserted, r.Skipped, r.Failed),
		r.Duration.Round(time.Millisecond).String(),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()
}
