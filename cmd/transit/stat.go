package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/porterbay/transit"
	"github.com/porterbay/transit/internal/progress"
	"github.com/porterbay/transit/transittypes"
)

var statFresh bool

var statCmd = &cobra.Command{
	Use:   "stat <key>",
	Short: "Show object metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func init() {
	statCmd.Flags().BoolVar(&statFresh, "fresh", false, "bypass the metadata cache")
}

// runStat prints the object's metadata
func runStat(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []transittypes.StatOption
	if statFresh {
		opts = append(opts, transit.WithBypassCache())
	}

	info, err := engine.GetFileInfo(cmd.Context(), args[0], opts...)
	if err != nil {
		return err
	}

	fmt.Printf("key:           %s\n", info.Key)
	fmt.Printf("size:          %s (%d bytes)\n", progress.FormatBytes(info.Size), info.Size)
	fmt.Printf("content type:  %s\n", info.ContentType)
	fmt.Printf("etag:          %s\n", info.ETag)
	fmt.Printf("last modified: %s\n", info.LastModified.Format(time.RFC3339))
	fmt.Printf("storage class: %s\n", info.StorageClass)

	keys := make([]string, 0, len(info.Metadata))
	for k := range info.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("metadata:      %s=%s\n", k, info.Metadata[k])
	}
	return nil
}
