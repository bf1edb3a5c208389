// Package ty provides type tags: hierarchical, human-readable names for
// logical types, used as storage partition keys.
//
// A tag is a namespace path plus optional generic parameters, written
// canonically as
//
//	a::b::Foo<a::b::Bar,c::Baz<d::Qux>>
//
// Two tags are equal iff their canonical strings are equal. Tags carry
// no schema; the store treats them purely as namespace keys.
package ty

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Separator joins path segments.
const Separator = "::"

// Ty is a type tag.
type Ty struct {
	// Path holds the namespace segments, the type name last.
	Path []string
	// Params holds generic arguments in declaration order.
	Params []Ty
}

// New returns a tag with the given path segments and no parameters.
func New(path ...string) Ty {
	return Ty{Path: path}
}

// With returns a copy of t with params appended.
func (t Ty) With(params ...Ty) Ty {
	return Ty{
		Path:   slices.Clone(t.Path),
		Params: append(slices.Clone(t.Params), params...),
	}
}

// String returns the canonical form.
func (t Ty) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Ty) write(b *strings.Builder) {
	b.WriteString(strings.Join(t.Path, Separator))
	if len(t.Params) == 0 {
		return
	}
	b.WriteByte('<')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		p.write(b)
	}
	b.WriteByte('>')
}

// Name returns the last path segment.
func (t Ty) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// IsZero reports whether t is the empty tag.
func (t Ty) IsZero() bool {
	return len(t.Path) == 0 && len(t.Params) == 0
}

// Equal compares canonical forms.
func (t Ty) Equal(other Ty) bool {
	return t.String() == other.String()
}

// MarshalText implements encoding.TextMarshaler.
func (t Ty) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Ty) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse reads the canonical form. Whitespace around segments and
// separators is ignored and segments are normalized to Unicode NFC, so
// every accepted spelling of a tag maps to one canonical string.
func Parse(s string) (Ty, error) {
	p := &parser{src: s}
	t, err := p.tag()
	if err != nil {
		return Ty{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Ty{}, p.errorf("unexpected %q", p.src[p.pos])
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or for tags known at compile time.
func MustParse(s string) Ty {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid type tag %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) tag() (Ty, error) {
	var t Ty
	for {
		seg, err := p.segment()
		if err != nil {
			return Ty{}, err
		}
		t.Path = append(t.Path, seg)
		p.skipSpace()
		if !strings.HasPrefix(p.src[p.pos:], Separator) {
			break
		}
		p.pos += len(Separator)
	}

	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		for {
			param, err := p.tag()
			if err != nil {
				return Ty{}, err
			}
			t.Params = append(t.Params, param)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return Ty{}, p.errorf("unterminated generic parameters")
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == '>' {
				p.pos++
				break
			}
			return Ty{}, p.errorf("unexpected %q in generic parameters", p.src[p.pos])
		}
	}
	return t, nil
}

func (p *parser) segment() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !isReserved(p.src[p.pos]) {
		p.pos++
	}
	seg := strings.TrimRight(p.src[start:p.pos], " \t")
	if seg == "" {
		return "", p.errorf("empty path segment")
	}
	return norm.NFC.String(seg), nil
}

func isReserved(c byte) bool {
	switch c {
	case ':', '<', '>', ',':
		return true
	}
	return false
}
