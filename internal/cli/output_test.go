package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casstore/internal/backend"
	"github.com/roach88/casstore/internal/compiler"
	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/store"
)

const sampleHash = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"

func TestOutputFormatterSuccess(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   any
		want   string
	}{
		{"text hash", "text", sampleHash, sampleHash + "\n"},
		{"text nil", "text", nil, ""},
		{"json object", "json", map[string]string{"hash": sampleHash}, `{"status":"ok","data":{"hash":"` + sampleHash + `"}}`},
		{"json nil", "json", nil, `{"status":"ok"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: tt.format, Writer: buf}
			require.NoError(t, f.Success(tt.data))
			if tt.format == "json" {
				assert.JSONEq(t, tt.want, buf.String())
				return
			}
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutputFormatterLines(t *testing.T) {
	tests := []struct {
		name   string
		format string
		items  []string
		data   any
		want   string
	}{
		{"text", "text", []string{"a", "b"}, nil, "a\nb\n"},
		{"text empty", "text", nil, nil, ""},
		{"json", "json", []string{"a"}, []string{"a"}, `{"status":"ok","data":["a"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: tt.format, Writer: buf}
			require.NoError(t, f.Lines(tt.items, tt.data))
			if tt.format == "json" {
				assert.JSONEq(t, tt.want, buf.String())
				return
			}
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutputFormatterTextError(t *testing.T) {
	details := []compiler.ValidationError{{Code: compiler.ErrSchemaViolation, Message: "incomplete value int", Field: "inner"}}

	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			require.NoError(t, f.Error(ErrCodeInvalidDoc, "document does not satisfy foo.cue", details))
			assert.Empty(t, out.String(), "text errors never reach stdout")
			assert.Contains(t, errOut.String(), "Error [E201]: document does not satisfy foo.cue\n")
			if tt.wantDetails {
				assert.Contains(t, errOut.String(), "Details:")
				assert.Contains(t, errOut.String(), "incomplete value int")
			} else {
				assert.NotContains(t, errOut.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatterTextErrorDefaultsToWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, f.Error(ErrCodeNotFound, "no document", nil))
	assert.Equal(t, "Error [E005]: no document\n", buf.String())
}

func TestOutputFormatterJSONError(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
		details any
	}{
		{"plain", ErrCodeGeneric, "write failed", nil},
		{"with details", ErrCodeInvalidArg, "invalid hash", map[string]string{"hash": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}
			require.NoError(t, f.Error(tt.code, tt.message, tt.details))
			assert.Empty(t, errOut.String(), "json errors are written to stdout")

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.Equal(t, tt.details != nil, resp.Error.Details != nil)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", errors.New("unknown flag: --bogus"), ExitCommandError},
		{"exit error", &ExitError{Code: ExitCommandError, Message: "bad config"}, ExitCommandError},
		{"wrapped", fmt.Errorf("wrapped: %w", WrapExitError(ExitFailure, "x", errors.New("y"))), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"generic", errors.New("x"), ErrCodeGeneric},
		{"explicit", &ExitError{Message: "m", ErrCode: ErrCodeNotFound}, ErrCodeNotFound},
		{"read-only", WrapExitError(ExitFailure, "w", &backend.Error{Op: "put", Err: backend.ErrReadOnly}), ErrCodeReadOnly},
		{"not exist", WrapExitError(ExitFailure, "o", &backend.Error{Op: "open", Err: backend.ErrNotExist}), ErrCodeNotFound},
		{"backend", &backend.Error{Op: "get", Err: errors.New("disk I/O error")}, ErrCodeBackend},
		{"codec", &store.CodecError{Codec: "json", Op: "unmarshal", Err: errors.New("x")}, ErrCodeCodec},
		{"encode", digest.Custom("bad"), ErrCodeEncode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "failed to write: boom", WrapExitError(ExitFailure, "failed to write", errors.New("boom")).Error())
	assert.Equal(t, "bad config", (&ExitError{Code: ExitCommandError, Message: "bad config"}).Error())
}
