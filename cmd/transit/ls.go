package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/porterbay/transit"
	"github.com/porterbay/transit/internal/progress"
	"github.com/porterbay/transit/transittypes"
)

var (
	lsMaxKeys int32
	lsAll     bool
	lsLong    bool
)

var lsCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "List objects under a prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	lsCmd.Flags().Int32Var(&lsMaxKeys, "max-keys", 0, "maximum keys per page (up to 1000)")
	lsCmd.Flags().BoolVar(&lsAll, "all", false, "follow continuation tokens until the listing is exhausted")
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "show size and modification time")
}

// runList prints one page, or with --all every page, of the listing
func runList(cmd *cobra.Command, args []string) error {
	var prefix string
	if len(args) == 1 {
		prefix = args[0]
	}

	engine, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	token := ""
	for {
		var opts []transittypes.ListOption
		if lsMaxKeys > 0 {
			opts = append(opts, transit.WithMaxKeys(lsMaxKeys))
		}
		if token != "" {
			opts = append(opts, transit.WithContinuationToken(token))
		}

		page, err := engine.ListFiles(cmd.Context(), prefix, opts...)
		if err != nil {
			return err
		}

		for _, obj := range page.Objects {
			if lsLong {
				fmt.Printf("%10s  %s  %s\n",
					progress.FormatBytes(obj.Size),
					obj.LastModified.Format(time.RFC3339),
					obj.Key,
				)
			} else {
				fmt.Println(obj.Key)
			}
		}

		if !page.IsTruncated {
			return nil
		}
		if !lsAll {
			fmt.Fprintln(os.Stderr, "more results available, rerun with --all to list them")
			return nil
		}
		token = page.NextContinuationToken
	}
}
