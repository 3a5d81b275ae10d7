package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sternrassler/artic-table/pkg/artwork"
)

func newPageCommand(v *viper.Viper) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "page N",
		Short: "Fetch one catalog page and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("N must be an integer (got %q)", args[0])
			}

			rt, err := setup(v, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctrl, err := rt.controller()
			if err != nil {
				return err
			}

			p, err := ctrl.LoadPage(cmd.Context(), n)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(artwork.ListResponse{Pagination: p.Pagination, Data: p.Records})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderPage(p))

			s := ctrl.Summary()
			fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %s (page %d of %d)\n", s.Showing, s.CurrentPage, s.TotalPages)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw page as JSON")
	return cmd
}

// renderPage lays the page out as a borderless table for terminals and
// pipes alike.
func renderPage(p *artwork.Page) string {
	cell := lipgloss.NewStyle().PaddingRight(2)
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style { return cell }).
		Headers("ID", "TITLE", "PLACE OF ORIGIN", "ARTIST", "INSCRIPTIONS", "DATES")

	for _, rec := range p.Records {
		t.Row(
			strconv.Itoa(rec.ID),
			firstLine(rec.DisplayTitle()),
			rec.DisplayOrigin(),
			firstLine(rec.DisplayArtist()),
			rec.DisplayInscriptions(artwork.DefaultInscriptionWidth),
			rec.DisplayDateRange(),
		)
	}
	return t.Render()
}

// firstLine keeps the artist name and drops nationality/dates lines.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
