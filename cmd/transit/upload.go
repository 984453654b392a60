package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/porterbay/transit"
	"github.com/porterbay/transit/internal/progress"
	"github.com/porterbay/transit/transittypes"
)

var (
	uploadContentType string
	uploadMeta        []string
	uploadChunkSize   int64
	uploadParallel    int
	uploadQuiet       bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> <key>",
	Short: "Upload a local file",
	Long: `Uploads a local file under the given key. Files at or above the
multipart threshold are split into parts and uploaded in parallel.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "content type (detected when empty)")
	uploadCmd.Flags().StringArrayVar(&uploadMeta, "meta", nil, "user metadata entry as key=value (repeatable)")
	uploadCmd.Flags().Int64Var(&uploadChunkSize, "chunk-size", 0, "part size in bytes for multipart uploads")
	uploadCmd.Flags().IntVar(&uploadParallel, "parallel", 0, "concurrent part uploads")
	uploadCmd.Flags().BoolVarP(&uploadQuiet, "quiet", "q", false, "suppress the progress bar")
}

// runUpload is the main entry point for the upload command
func runUpload(cmd *cobra.Command, args []string) error {
	localPath, key := args[0], args[1]

	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	meta, err := parseMetadata(uploadMeta)
	if err != nil {
		return err
	}

	var opts []transittypes.UploadOption
	if uploadContentType != "" {
		opts = append(opts, transit.WithContentType(uploadContentType))
	}
	if len(meta) > 0 {
		opts = append(opts, transit.WithMetadata(meta))
	}
	if uploadChunkSize > 0 {
		opts = append(opts, transit.WithUploadChunkSize(uploadChunkSize))
	}
	if uploadParallel > 0 {
		opts = append(opts, transit.WithUploadConcurrency(uploadParallel))
	}
	if !uploadQuiet {
		opts = append(opts, transit.WithProgress(newBarObserver("uploading "+filepath.Base(localPath))))
	}

	result, err := engine.UploadFile(cmd.Context(), localPath, key, opts...)
	if err != nil {
		return err
	}

	printUploadSuccess(result)
	return nil
}

// printUploadSuccess displays a success message
func printUploadSuccess(result *transittypes.UploadResult) {
	color.Green("✓ Uploaded %s (%s, %s) in %v\n",
		result.Key,
		progress.FormatBytes(result.Size),
		result.UploadType,
		result.Duration.Round(time.Millisecond),
	)
}

// parseMetadata splits repeated key=value flags into a map
func parseMetadata(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	meta := make(map[string]string, len(entries))
	for _, entry := range entries {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata entry %q, want key=value", entry)
		}
		meta[k] = v
	}
	return meta, nil
}
