package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Delete one or more objects",
	Long: `Deletes the named objects. Multiple keys go out as a single batch
call; keys that do not exist count as deleted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

// runRemove is the main entry point for the rm command
func runRemove(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	if len(args) == 1 {
		if _, err := engine.DeleteFile(cmd.Context(), args[0]); err != nil {
			return err
		}
		color.Green("✓ Deleted %s\n", args[0])
		return nil
	}

	outcome, err := engine.DeleteFiles(cmd.Context(), args)
	if err != nil {
		return err
	}

	failed := 0
	for key, deleted := range outcome {
		if !deleted {
			failed++
			color.Red("✗ %s\n", key)
		}
	}
	fmt.Printf("deleted %d of %d objects\n", len(outcome)-failed, len(outcome))
	if failed > 0 {
		return fmt.Errorf("%d deletions failed", failed)
	}
	return nil
}
