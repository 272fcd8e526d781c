package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// renderTable writes rows as a borderless, left-aligned table.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	off := tw.Off
	rendition := tw.Rendition{
		Borders: tw.BorderNone,
		Symbols: tw.NewSymbols(tw.StyleASCII),
		Settings: tw.Settings{
			Lines: tw.Lines{
				ShowTop:        off,
				ShowBottom:     off,
				ShowHeaderLine: off,
				ShowFooterLine: off,
			},
			Separators: tw.Separators{
				ShowHeader:     off,
				ShowFooter:     off,
				BetweenRows:    off,
				BetweenColumns: off,
			},
		},
	}

	left := tw.CellAlignment{Global: tw.AlignLeft}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(rendition)),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: left},
			Row: tw.CellConfig{
				Alignment:    left,
				Formatting:   tw.CellFormatting{AutoWrap: tw.WrapNone},
				ColMaxWidths: tw.CellWidth{Global: 60},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err //nolint:wrapcheck // Wrapped by the caller.
	}

	return table.Render() //nolint:wrapcheck // Wrapped by the caller.
}
