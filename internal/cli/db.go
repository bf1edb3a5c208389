package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/store"
	"github.com/roach88/casstore/internal/ty"
)

// DBOptions holds the flags shared by every command that opens a store.
type DBOptions struct {
	*RootOptions
	Database        string
	ConfigPath      string
	ReadOnly        bool
	CreateIfMissing bool
}

func addDBFlags(cmd *cobra.Command, opts *DBOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().BoolVar(&opts.ReadOnly, "read-only", false, "open the database read-only")
	cmd.Flags().BoolVar(&opts.CreateIfMissing, "create-if-missing", true, "create the database if it does not exist")
}

// openStore resolves the database path and params from the config file
// and flags, then opens the store.
func openStore(cmd *cobra.Command, opts *DBOptions) (*store.Store, error) {
	cfg := &Config{}
	if opts.ConfigPath != "" {
		loaded, err := LoadConfig(opts.ConfigPath)
		if err != nil {
			return nil, &ExitError{Code: ExitCommandError, Message: "invalid config", Err: err, ErrCode: ErrCodeConfigError}
		}
		cfg = loaded
	}

	path := cfg.Database
	if cmd.Flags().Changed("db") || path == "" {
		path = opts.Database
	}
	if path == "" {
		return nil, &ExitError{Code: ExitFailure, Message: "no database: pass --db or set db in --config", ErrCode: ErrCodeInvalidArg}
	}

	params := cfg.Params()
	if cmd.Flags().Changed("read-only") {
		params.ReadOnly = opts.ReadOnly
	}
	if cmd.Flags().Changed("create-if-missing") {
		params.CreateIfMissing = opts.CreateIfMissing
	}

	st, err := store.OpenSQLite(path, params, store.WithLogger(opts.logger()))
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open database", err)
	}
	return st, nil
}

func closeStore(opts *DBOptions, st *store.Store) {
	if err := st.Close(); err != nil {
		opts.logger().Error("error closing database", "error", err)
	}
}

// parseTag validates a --ty value before any backend call.
func parseTag(s string) (ty.Ty, error) {
	tag, err := ty.Parse(s)
	if err != nil {
		return ty.Ty{}, &ExitError{Code: ExitFailure, Message: "invalid --ty", Err: err, ErrCode: ErrCodeInvalidArg}
	}
	return tag, nil
}

// parseHashArg validates a hash argument before any backend call.
func parseHashArg(s string) (digest.ContentHash, error) {
	h, err := digest.ParseHash(s)
	if err != nil {
		return digest.ContentHash{}, &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("invalid hash %q", s),
			Err:     err,
			ErrCode: ErrCodeInvalidArg,
		}
	}
	return h, nil
}
