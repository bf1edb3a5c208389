package cli

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/roach88/casstore/internal/backend"
)

// GetOptions holds flags for the get and get-all commands.
type GetOptions struct {
	DBOptions
	Ty string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{DBOptions: DBOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "get <hash>",
		Short: "Print the document stored under a hash",
		Long: `Print the document stored under a hash in a type tag's partition.

The hash must be 64 hexadecimal characters. A missing document is an error.

Example:
  casstore get --db ./data.db --ty pkg::Foo 3f1c...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], cmd)
		},
	}

	addDBFlags(cmd, &opts.DBOptions)
	cmd.Flags().StringVar(&opts.Ty, "ty", "", "type tag of the partition (required)")
	_ = cmd.MarkFlagRequired("ty")

	return cmd
}

func runGet(opts *GetOptions, hashArg string, cmd *cobra.Command) error {
	tag, err := parseTag(opts.Ty)
	if err != nil {
		return err
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

	content, ok, err := st.GetRaw(cmd.Context(), tag, h)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read", err)
	}
	if !ok {
		return &ExitError{
			Code:    ExitFailure,
			Message: "no document " + h.String() + " in " + tag.String(),
			ErrCode: ErrCodeNotFound,
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(entryView{Hash: h.String(), Content: payload(content)})
	}
	if !utf8.Valid(content) {
		return &ExitError{Code: ExitFailure, Message: "stored document is not valid UTF-8", ErrCode: ErrCodeCodec}
	}
	return formatter.Success(string(content))
}

// NewGetAllCommand creates the get-all command.
func NewGetAllCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{DBOptions: DBOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "get-all",
		Short: "Print every document in a partition",
		Long: `Print every document stored under a type tag, one per line, ordered by hash.

An empty or never-written partition prints nothing.

Example:
  casstore get-all --db ./data.db --ty pkg::Foo`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGetAll(opts, cmd)
		},
	}

	addDBFlags(cmd, &opts.DBOptions)
	cmd.Flags().StringVar(&opts.Ty, "ty", "", "type tag of the partition (required)")
	_ = cmd.MarkFlagRequired("ty")

	return cmd
}

func runGetAll(opts *GetOptions, cmd *cobra.Command) error {
	tag, err := parseTag(opts.Ty)
	if err != nil {
		return err
	}

	st, err := openStore(cmd, &opts.DBOptions)
	if err != nil {
		return err
	}
	defer closeStore(&opts.DBOptions, st)

	entries, err := st.GetAllRaw(cmd.Context(), tag)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read", err)
	}
	opts.logger().Debug("partition read", "ty", tag.String(), "entries", len(entries))

	lines := make([]string, 0, len(entries))
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, string(e.Content))
		views = append(views, viewOf(e))
	}
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	return formatter.Lines(lines, views)
}

// entryView is the JSON output shape of one stored document.
type entryView struct {
	Hash    string `json:"hash"`
	Content any    `json:"content"`
}

func viewOf(e backend.Entry) entryView {
	return entryView{Hash: e.Hash.String(), Content: payload(e.Content)}
}

// payload embeds valid JSON as-is and anything else as a string.
func payload(content []byte) any {
	if json.Valid(content) {
		return json.RawMessage(content)
	}
	return string(content)
}
