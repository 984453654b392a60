package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/porterbay/transit"
	"github.com/porterbay/transit/transittypes"
)

var (
	bucketFlag    string
	regionFlag    string
	endpointFlag  string
	pathStyleFlag bool
	verboseFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "transit",
	Short: "Move files in and out of S3-compatible object storage",
	Long: `transit uploads, downloads, and manages objects in S3-compatible
object storage. Large uploads are split into parts and sent in parallel.

Configuration comes from flags, then TRANSIT_* environment variables,
then the standard AWS credential chain. A .env file in the working
directory is loaded automatically.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&bucketFlag, "bucket", "", "bucket to operate on (env TRANSIT_BUCKET)")
	flags.StringVar(&regionFlag, "region", "", "AWS region (env TRANSIT_REGION)")
	flags.StringVar(&endpointFlag, "endpoint", "", "custom endpoint URL (env TRANSIT_ENDPOINT)")
	flags.BoolVar(&pathStyleFlag, "path-style", false, "use path-style URLs (MinIO, LocalStack)")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "log transfer diagnostics to stderr")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(presignCmd)
}

// envOr resolves a setting with flags taking precedence over the
// environment. Env lookups happen here rather than in flag defaults, so
// values loaded from .env in main are visible.
func envOr(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}

// newEngine builds an engine from the global flags and environment.
func newEngine(ctx context.Context) (*transit.Engine, error) {
	bucket := envOr(bucketFlag, "TRANSIT_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("no bucket configured: pass --bucket or set TRANSIT_BUCKET")
	}

	opts := []transittypes.Option{
		transit.WithBucket(bucket),
	}
	if region := envOr(regionFlag, "TRANSIT_REGION"); region != "" {
		opts = append(opts, transit.WithRegion(region))
	}
	if endpoint := envOr(endpointFlag, "TRANSIT_ENDPOINT"); endpoint != "" {
		opts = append(opts, transit.WithEndpoint(endpoint))
	}
	if pathStyleFlag {
		opts = append(opts, transit.WithForcePathStyle(true))
	}
	if access := os.Getenv("TRANSIT_ACCESS_KEY_ID"); access != "" {
		opts = append(opts, transit.WithStaticCredentials(
			access,
			os.Getenv("TRANSIT_SECRET_ACCESS_KEY"),
			os.Getenv("TRANSIT_SESSION_TOKEN"),
		))
	}
	if verboseFlag {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
		opts = append(opts, transit.WithLogger(logger))
	}

	return transit.New(ctx, opts...)
}
