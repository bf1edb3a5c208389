package cli

import (
	"github.com/spf13/cobra"
)

// HashOptions holds flags for the hash command.
type HashOptions struct {
	*RootOptions
	Value string
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the content hash of a JSON document",
		Long: `Print the content hash a JSON document would be stored under, without
opening a database.

Example:
  casstore hash --value '{"inner":6}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Value, "value", "", "JSON document (default: read standard input)")

	return cmd
}

func runHash(opts *HashOptions, cmd *cobra.Command) error {
	data, err := readDocument(cmd, opts.Value, cmd.Flags().Changed("value"))
	if err != nil {
		return err
	}
	h, err := hashDocument(data)
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(map[string]string{"hash": h.String()})
	}
	return formatter.Success(h.String())
}
