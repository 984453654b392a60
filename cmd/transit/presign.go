package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/porterbay/transit/transittypes"
)

var (
	presignPut    bool
	presignExpiry time.Duration
)

var presignCmd = &cobra.Command{
	Use:   "presign <key>",
	Short: "Generate a time-limited URL for an object",
	Long: `Prints a presigned URL granting access to a single object without
credentials. The URL authorizes a GET by default; --put signs an upload
URL instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runPresign,
}

func init() {
	presignCmd.Flags().BoolVar(&presignPut, "put", false, "sign an upload instead of a fetch")
	presignCmd.Flags().DurationVar(&presignExpiry, "expiry", 0, "URL lifetime (default 1h, maximum 168h)")
}

// runPresign prints the signed URL
func runPresign(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	op := transittypes.PresignGet
	if presignPut {
		op = transittypes.PresignPut
	}

	url, err := engine.PresignURL(cmd.Context(), args[0], op, presignExpiry)
	if err != nil {
		return err
	}

	fmt.Println(url)
	return nil
}
