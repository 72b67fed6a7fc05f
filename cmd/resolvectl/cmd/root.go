package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamalishaq/resolve_envelope/internal/config"
)

// rootOptions carries flags and the loaded configuration to subcommands.
type rootOptions struct {
	cfgFile string
	cfg     config.Config
}

// NewRootCmd builds the resolvectl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "resolvectl",
		Short: "Run resolver events through the AppSync envelope pipeline",
		Long: `resolvectl invokes a sample resolver with a single or batch AppSync event
and prints the normalized response envelope, using the same validation,
failure policy and batch rules as the library.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), opts.cfgFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML); RESOLVE_ENVELOPE_* variables override it")

	rootCmd.AddCommand(newInvokeCmd(opts), newConfigCmd(opts))
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
