package main

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	df "github.com/reoring/datafixer"
)

func (a *app) schemaCmd() *cobra.Command {
	var (
		version int
		ref     string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of a type at a data version",
		Long: `Projects a registered type into JSON Schema (draft 2020-12). Every type
it references is included under $defs.

Example:
  datafixer schema --type ENTITY --data-version 1125`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixer, err := a.fixer()
			if err != nil {
				return err
			}
			if version == 0 {
				version = fixer.Target()
			}
			s, ok := fixer.SchemaAt(version)
			if !ok {
				return fmt.Errorf("no schema at data version %d", version)
			}
			doc, err := s.JSONSchema(df.TypeRef(strings.ToUpper(ref)))
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode schema: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return err
		},
	}
	cmd.Flags().IntVar(&version, "data-version", 0, "Data version (default: target)")
	cmd.Flags().StringVarP(&ref, "type", "t", "CHUNK", "Type reference")
	return cmd
}
