package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) fixesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fixes",
		Short: "List the registered fixes in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixer, err := a.fixer()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tFIX\tSHAPE\tRULES")
			for _, fix := range fixer.Fixes() {
				shape := "values"
				if fix.ChangesShape() {
					shape = "types"
				}
				for i, rule := range fix.Rules() {
					if i == 0 {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", fix.Version(), fix.Name(), shape, rule)
						continue
					}
					fmt.Fprintf(w, "\t\t\t%s\n", rule)
				}
			}
			return w.Flush()
		},
	}
}
