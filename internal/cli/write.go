package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/casstore/internal/compiler"
	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/store"
)

// WriteOptions holds flags for the write command.
type WriteOptions struct {
	DBOptions
	Ty     string
	Value  string
	Schema string
}

// NewWriteCommand creates the write command.
func NewWriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{DBOptions: DBOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Store a JSON document and print its hash",
		Long: `Store a JSON document under a type tag and print its content hash.

The document is read from --value, or from standard input when --value is
not given. The hash covers the parsed document, so whitespace and key order
do not change it. The document is stored compact, one line, keys sorted.

Example:
  casstore write --db ./data.db --ty pkg::Foo --value '{"inner":6}'
  echo '{"inner":6}' | casstore write --db ./data.db --ty pkg::Foo --schema foo.cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(opts, cmd)
		},
	}

	addDBFlags(cmd, &opts.DBOptions)
	cmd.Flags().StringVar(&opts.Ty, "ty", "", "type tag of the partition (required)")
	cmd.Flags().StringVar(&opts.Value, "value", "", "JSON document (default: read standard input)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema the document must satisfy")
	_ = cmd.MarkFlagRequired("ty")

	return cmd
}

func runWrite(opts *WriteOptions, cmd *cobra.Command) error {
	tag, err := parseTag(opts.Ty)
	if err != nil {
		return err
	}
	data, err := readDocument(cmd, opts.Value, cmd.Flags().Changed("value"))
	if err != nil {
		return err
	}

	if opts.Schema != "" {
		if err := checkSchema(opts.Schema, data); err != nil {
			return err
		}
	}

	h, compact, err := compactDocument(data)
	if err != nil {
		return err
	}

	st, err := openStore(cmd, &opts.DBOptions)
	if err != nil {
		return err
	}
	defer closeStore(&opts.DBOptions, st)

	// The document was hashed above, so the store takes it raw.
	if err := st.WriteRaw(cmd.Context(), tag, h, compact); err != nil {
		return WrapExitError(ExitFailure, "failed to write", err)
	}
	opts.logger().Debug("document written", "ty", tag.String(), "hash", h.String(), "bytes", len(compact))

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(map[string]string{"hash": h.String(), "ty": tag.String()})
	}
	return formatter.Success(h.String())
}

// hashDocument hashes a JSON document. Syntax errors are codec errors;
// numbers that fit no numeric class are encoding errors.
func hashDocument(data []byte) (digest.ContentHash, error) {
	h, _, err := parseDocument(data)
	return h, err
}

// compactDocument hashes a JSON document and renders it compact.
func compactDocument(data []byte) (digest.ContentHash, []byte, error) {
	h, doc, err := parseDocument(data)
	if err != nil {
		return h, nil, err
	}
	compact, err := digest.CompactJSON(doc)
	if err != nil {
		err = &store.CodecError{Codec: "json", Op: "marshal", Err: err}
		return h, nil, WrapExitError(ExitFailure, "failed to encode document", err)
	}
	return h, compact, nil
}

func parseDocument(data []byte) (digest.ContentHash, any, error) {
	h, doc, err := digest.DigestJSON(data)
	if err != nil {
		var encErr *digest.EncodeError
		if !errors.As(err, &encErr) {
			err = &store.CodecError{Codec: "json", Op: "unmarshal", Err: err}
		}
		return digest.ContentHash{}, nil, WrapExitError(ExitFailure, "failed to parse document", err)
	}
	return h, doc, nil
}

// readDocument returns value when the flag was given, else all of stdin.
func readDocument(cmd *cobra.Command, value string, given bool) ([]byte, error) {
	if given {
		return []byte(value), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to read standard input", err)
	}
	return data, nil
}

func checkSchema(path string, data []byte) error {
	schema, err := compiler.LoadSchema(path)
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: "failed to load schema", Err: err, ErrCode: ErrCodeInvalidDoc}
	}
	if errs := schema.Validate(data); len(errs) > 0 {
		return &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("document does not satisfy %s", schema.Name()),
			Err:     errors.New(compiler.Join(errs)),
			ErrCode: ErrCodeInvalidDoc,
			Details: errs,
		}
	}
	return nil
}
