package main

import (
	"github.com/spf13/cobra"

	"fgdefs/internal/engine"
	"fgdefs/internal/models"
)

type inspectReport struct {
	Path        string          `json:"path"`
	EntityCount int             `json:"entity_count"`
	Traits      []string        `json:"traits"`
	Properties  []string        `json:"properties"`
	Summary     *models.Summary `json:"summary"`
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Load the definitions and print names, counts and a summary as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.DefinitionsPath()
			defs, err := engine.Load(cmd.Context(), a.source(), path, a.logger)
			if err != nil {
				return err
			}
			return printJSON(cmd, inspectReport{
				Path:        path,
				EntityCount: defs.EntityCount(),
				Traits:      defs.TraitNames(),
				Properties:  defs.PropertyNames(),
				Summary:     defs.Aggregate(),
			})
		},
	}
}
