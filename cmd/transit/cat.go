package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/porterbay/transit"
	"github.com/porterbay/transit/transittypes"
)

var (
	catStart int64
	catEnd   int64
)

var catCmd = &cobra.Command{
	Use:   "cat <key>",
	Short: "Write an object's contents to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

func init() {
	catCmd.Flags().Int64Var(&catStart, "start", -1, "first byte offset to read")
	catCmd.Flags().Int64Var(&catEnd, "end", -1, "last byte offset to read, inclusive")
}

// runCat streams the object body to stdout
func runCat(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []transittypes.DownloadOption
	if catStart >= 0 {
		opts = append(opts, transit.WithRangeStart(catStart))
	}
	if catEnd >= 0 {
		opts = append(opts, transit.WithRangeEnd(catEnd))
	}

	body, err := engine.DownloadStream(cmd.Context(), args[0], opts...)
	if err != nil {
		return err
	}
	defer body.Close()

	_, err = io.Copy(os.Stdout, body)
	return err
}
