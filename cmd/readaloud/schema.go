package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/koscakluka/ema-reader/core/frames"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of frame messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(frames.Schema())
		},
	}
}
