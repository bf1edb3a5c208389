package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/casstore/internal/ty"
)

// DeleteOptions holds flags for the delete and delete-all commands.
type DeleteOptions struct {
	DBOptions
	Ty string
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{DBOptions: DBOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "delete <hash>",
		Short: "Remove a document by hash",
		Long: `Remove a document by hash from every partition, or from one with --ty.

Prints the type tag of each partition the document was removed from.
Deleting a hash that is not stored is not an error.

Example:
  casstore delete --db ./data.db 3f1c...
  casstore delete --db ./data.db --ty pkg::Foo 3f1c...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args[0], cmd)
		},
	}

	addDBFlags(cmd, &opts.DBOptions)
	cmd.Flags().StringVar(&opts.Ty, "ty", "", "only delete from this partition")

	return cmd
}

func runDelete(opts *DeleteOptions, hashArg string, cmd *cobra.Command) error {
	var (
		tag    ty.Ty
		scoped = opts.Ty != ""
		err    error
	)
	if scoped {
		if tag, err = parseTag(opts.Ty); err != nil {
			return err
		}
	}
	h, err := parseHashArg(hashArg)
	if err != nil {
		return err
	}

	st, err := openStore(cmd, &opts.DBOptions)
	if err != nil {
		return err
	}
	defer closeStore(&opts.DBOptions, st)

	ctx := cmd.Context()
	var removed []ty.Ty
	if scoped {
		_, ok, err := st.GetRaw(ctx, tag, h)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to delete", err)
		}
		if err := st.DeleteRaw(ctx, tag, h); err != nil {
			return WrapExitError(ExitFailure, "failed to delete", err)
		}
		if ok {
			removed = append(removed, tag)
		}
	} else {
		removed, err = st.DeleteEverywhere(ctx, h)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to delete", err)
		}
	}
	opts.logger().Debug("delete finished", "hash", h.String(), "partitions", len(removed))

	names := tagStrings(removed)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	return formatter.Lines(names, map[string]any{"hash": h.String(), "removed": names})
}

// NewDeleteAllCommand creates the delete-all command.
func NewDeleteAllCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{DBOptions: DBOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Drop a whole partition",
		Long: `Drop every document stored under a type tag. Other partitions are untouched.

Example:
  casstore delete-all --db ./data.db --ty pkg::Foo`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteAll(opts, cmd)
		},
	}

	addDBFlags(cmd, &opts.DBOptions)
	cmd.Flags().StringVar(&opts.Ty, "ty", "", "type tag of the partition (required)")
	_ = cmd.MarkFlagRequired("ty")

	return cmd
}

func runDeleteAll(opts *DeleteOptions, cmd *cobra.Command) error {
	tag, err := parseTag(opts.Ty)
	if err != nil {
		return err
	}

	st, err := openStore(cmd, &opts.DBOptions)
	if err != nil {
		return err
	}
	defer closeStore(&opts.DBOptions, st)

	if err := st.DeleteAllRaw(cmd.Context(), tag); err != nil {
		return WrapExitError(ExitFailure, "failed to delete partition", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(map[string]string{"ty": tag.String()})
	}
	return nil
}

func tagStrings(tags []ty.Ty) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}
