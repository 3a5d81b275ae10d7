package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// selectOutput is printed by the select command.
type selectOutput struct {
	Requested int    `json:"requested"`
	Count     int    `json:"count"`
	IDs       []int  `json:"ids"`
	Error     string `json:"error,omitempty"`
}

func newSelectCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "select N",
		Short: "Select the first N artworks of the catalog and print their ids as JSON",
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

			ids, walkErr := ctrl.SelectFirstN(cmd.Context(), n)
			out := selectOutput{Requested: n, Count: len(ids), IDs: ids}
			if out.IDs == nil {
				out.IDs = []int{}
			}
			if walkErr != nil {
				out.Error = walkErr.Error()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			return walkErr
		},
	}
}
