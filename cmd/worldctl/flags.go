package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// mustFlag marks a flag as required and panics on error.
func mustFlag(cmd *cobra.Command, name string) {
	cobra.CheckErr(cmd.MarkFlagRequired(name))
}

type output string

const (
	outTable output = "table"
	outJSON  output = "json"
	outYAML  output = "yaml"
)

func outputFormat(cmd *cobra.Command) (output, error) {
	o, _ := cmd.Root().PersistentFlags().GetString("output")
	switch output(o) {
	case outTable, outJSON, outYAML:
		return output(o), nil
	}
	return "", fmt.Errorf("unknown output %q (table|json|yaml)", o)
}

// entityArg accepts "cities", "City", "adminregions", ...
func entityArg(args []string) (sdk.Entity, error) {
	return sdk.ParseEntity(args[0])
}

func entityNames() []string {
	out := make([]string, len(sdk.Entities))
	for i, e := range sdk.Entities {
		out[i] = string(e)
	}
	return out
}
