package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/provide-io/emotepack/pkg/emote/archive"
	"github.com/provide-io/emotepack/pkg/emote/export"
	"github.com/provide-io/emotepack/pkg/emote/session"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	dimStyle     = cellStyle.Foreground(lipgloss.Color("241"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// noticePrinter writes session notices as colored lines.
func noticePrinter(w io.Writer) session.Notifier {
	return session.NotifierFunc(func(n session.Notice) {
		style := infoStyle
		switch n.Level {
		case session.LevelWarning:
			style = warningStyle
		case session.LevelError:
			style = errorStyle
		}
		fmt.Fprintln(w, style.Render(n.Message))
	})
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(headers...)
}

// cellsTable renders the slot list with computed file names.
func cellsTable(cells []session.Cell) string {
	t := newTable("#", "SLOT", "FILE", "IMAGE")
	for _, c := range cells {
		image := "-"
		if c.Bound && c.Preview != nil {
			image = c.Preview.Format
			if c.Preview.Width > 0 {
				image = fmt.Sprintf("%s %dx%d", c.Preview.Format, c.Preview.Width, c.Preview.Height)
			}
			if image == "" {
				image = "bound"
			}
		}
		t.Row(strconv.Itoa(c.Index+1), c.Slot, c.FileName, image)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row >= 0 && row < len(cells) && !cells[row].Bound {
			return dimStyle
		}
		return cellStyle
	})
	return t.Render()
}

// reportTable renders the files written by an export.
func reportTable(r *export.Report) string {
	t := newTable("SLOT", "FILE", "SIZE", "CHECKSUM")
	for _, f := range r.Files {
		t.Row(f.Slot, f.Name, strconv.Itoa(f.Size), f.Checksum)
	}
	for _, s := range r.Skipped {
		t.Row(s.Slot, "skipped", "", s.Reason)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})
	return t.Render()
}

// entriesTable renders the entries of an archive.
func entriesTable(a archive.Archiver, entries []archive.Entry) string {
	t := newTable("ENTRY", "SIZE")
	for _, e := range entries {
		t.Row(e.Name, strconv.Itoa(len(e.Data)))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})
	return headerStyle.Render(a.Format()) + "\n" + t.Render()
}
