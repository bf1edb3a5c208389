package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Schema is a compiled CUE schema.
type Schema struct {
	ctx   *cue.Context
	value cue.Value
	name  string
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadSchema reads and compiles the CUE file at path.
func LoadSchema(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return CompileSchema(path, src)
}

// CompileSchema compiles src. name is used in error positions.
func CompileSchema(name string, src []byte) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	// Incomplete values are expected, the document fills them in.
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}
	return &Schema{ctx: ctx, value: v, name: name}, nil
}

// Name returns the name the schema was compiled under.
func (s *Schema) Name() string { return s.name }

// Validate unifies the JSON document with the schema. It returns every
// violation found; an empty result means the document conforms.
func (s *Schema) Validate(doc []byte) []ValidationError {
	dv := s.ctx.CompileBytes(doc, cue.Filename("document.json"))
	if err := dv.Err(); err != nil {
		return toValidationErrors(err, ErrDocumentSyntax)
	}
	unified := s.value.Unify(dv)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return toValidationErrors(err, ErrSchemaViolation)
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
