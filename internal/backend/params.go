package backend

import (
	"io"
	"log/slog"
)

// Params controls how a persistent backend is opened.
type Params struct {
	// CreateIfMissing creates the database file when it does not exist.
	CreateIfMissing bool `yaml:"create_if_missing" json:"create_if_missing"`
	// ReadOnly opens the database without write access. Mutations fail
	// with ErrReadOnly. A read-only open never creates the file.
	ReadOnly bool `yaml:"read_only" json:"read_only"`
}

// DefaultParams creates missing databases and allows writes.
func DefaultParams() Params {
	return Params{CreateIfMissing: true}
}

// Option configures a backend handle.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for lifecycle and debug events.
// Without it the backend logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
