package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var mvCmd = &cobra.Command{
	Use:   "mv <source-key> <dest-key>",
	Short: "Move an object to a new key",
	Long: `Moves an object by copying it server side and deleting the source.
The two steps are not atomic; if the delete fails the source remains.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

// runMove is the main entry point for the mv command
func runMove(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.MoveFile(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	color.Green("✓ Moved %s to %s\n", result.SourceKey, result.DestinationKey)
	return nil
}
