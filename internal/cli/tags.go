package cli

import (
	"github.com/spf13/cobra"
)

// NewTagsCommand creates the tags command.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DBOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the partitions in a database",
		Long: `List the type tag of every partition in the database, one per line.

Example:
  casstore tags --db ./data.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(opts, cmd)
		},
	}

	addDBFlags(cmd, opts)

	return cmd
}

func runTags(opts *DBOptions, cmd *cobra.Command) error {
	st, err := openStore(cmd, opts)
	if err != nil {
		return err
	}
	defer closeStore(opts, st)

	tags, err := st.Tags(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list partitions", err)
	}

	names := tagStrings(tags)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	return formatter.Lines(names, names)
}
