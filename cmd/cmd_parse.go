package cmd

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/internal/config"
	"github.com/gaze-network/btcname-indexer/modules/btcname"
	"github.com/spf13/cobra"
)

type parseCmdOptions struct {
	Modes    []string
	Suffixes []string
}

func NewParseCommand() *cobra.Command {
	opts := &parseCmdOptions{}

	cmd := &cobra.Command{
		Use:     "parse <content>",
		Short:   "Show the collection keys an inscription content would claim",
		Args:    cobra.ExactArgs(1),
		Example: `gaze-btcname parse "satoshi.btc" --modes btc_domain,btc_name`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return parseHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.Modes, "modes", nil, "Registration modes, default to the configured modes")
	flags.StringSliceVar(&opts.Suffixes, "suffixes", nil, "Suffixes of the `btc_name` mode, default to the configured suffixes")

	return cmd
}

func parseHandler(opts *parseCmdOptions, cmd *cobra.Command, args []string) error {
	conf := config.Load()
	modes := conf.Modules.BTCName.Modes
	if len(opts.Modes) > 0 {
		modes = opts.Modes
	}
	suffixes := conf.Modules.BTCName.Suffixes
	if len(opts.Suffixes) > 0 {
		suffixes = opts.Suffixes
	}

	results, err := btcname.ParseContent(modes, suffixes, []byte(args[0]))
	if err != nil {
		return errors.Wrap(err, "invalid registration modes")
	}

	out := cmd.OutOrStdout()
	for _, result := range results {
		if result.Err != nil {
			fmt.Fprintf(out, "%s\tinvalid\t%s\n", result.Mode, strings.TrimSpace(result.Err.Error()))
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", result.Mode, result.Name, result.Kind, result.Key)
	}
	return nil
}
