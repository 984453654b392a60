package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/porterbay/transit"
	"github.com/porterbay/transit/transittypes"
)

var (
	cpFromBucket string
	cpMeta       []string
)

var cpCmd = &cobra.Command{
	Use:   "cp <source-key> <dest-key>",
	Short: "Copy an object server side",
	Long: `Copies an object to a new key without downloading it. The copy stays
within the configured bucket unless --from-bucket names another source.`,
	Args: cobra.ExactArgs(2),
	RunE: runCopy,
}

func init() {
	cpCmd.Flags().StringVar(&cpFromBucket, "from-bucket", "", "copy from a different source bucket")
	cpCmd.Flags().StringArrayVar(&cpMeta, "meta", nil, "replace metadata with key=value entries (repeatable)")
}

// runCopy is the main entry point for the cp command
func runCopy(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	meta, err := parseMetadata(cpMeta)
	if err != nil {
		return err
	}

	var opts []transittypes.CopyOption
	if cpFromBucket != "" {
		opts = append(opts, transit.WithSourceBucket(cpFromBucket))
	}
	if len(meta) > 0 {
		opts = append(opts, transit.WithCopyMetadata(meta))
	}

	result, err := engine.CopyFile(cmd.Context(), args[0], args[1], opts...)
	if err != nil {
		return err
	}

	color.Green("✓ Copied %s to %s\n", result.SourceKey, result.DestinationKey)
	return nil
}
