package main

import (
	"path"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/porterbay/transit"
	"github.com/porterbay/transit/internal/progress"
	"github.com/porterbay/transit/transittypes"
)

var downloadQuiet bool

var downloadCmd = &cobra.Command{
	Use:   "download <key> <destination>",
	Short: "Download an object to a local file",
	Long: `Downloads the object stored under key to the given local path,
creating parent directories as needed.`,
	Args: cobra.ExactArgs(2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().BoolVarP(&downloadQuiet, "quiet", "q", false, "suppress the progress bar")
}

// runDownload is the main entry point for the download command
func runDownload(cmd *cobra.Command, args []string) error {
	key, destPath := args[0], args[1]

	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []transittypes.DownloadOption
	if !downloadQuiet {
		opts = append(opts, transit.WithDownloadProgress(newBarObserver("downloading "+path.Base(key))))
	}

	result, err := engine.DownloadFile(cmd.Context(), key, destPath, opts...)
	if err != nil {
		return err
	}

	color.Green("✓ Downloaded %s to %s (%s) in %v\n",
		result.Key,
		result.LocalPath,
		progress.FormatBytes(result.Size),
		result.Duration.Round(time.Millisecond),
	)
	return nil
}
