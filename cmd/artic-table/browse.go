package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sternrassler/artic-table/internal/tui"
)

func newBrowseCommand(v *viper.Viper) *cobra.Command {
	var startPage int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse artworks in an interactive table",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(v, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctrl, err := rt.controller()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			model := tui.New(ctx, ctrl, tui.Options{StartPage: startPage})
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().IntVarP(&startPage, "page", "p", 1, "first page to show")
	return cmd
}
