package ty

import (
	"fmt"
	"reflect"
	"strings"
)

// Tagged is implemented by types that name their own tag. Types that
// don't implement it get a tag derived from their package path and
// name by For.
type Tagged interface {
	TypeTag() Ty
}

var taggedType = reflect.TypeFor[Tagged]()

// Of returns the tag of T. It panics when T has no derivable tag
// (unnamed composite types such as []int or struct{...}), which is a
// programming error.
func Of[T any]() Ty {
	t, err := For(reflect.TypeFor[T]())
	if err != nil {
		panic(err)
	}
	return t
}

// For derives the tag of t:
//
//   - pointer types use the tag of their element
//   - types implementing Tagged (with a value or pointer receiver)
//     return TypeTag() of their zero value
//   - named types use their package path, split on "/", followed by
//     the type name; predeclared types are a single segment ("int")
//   - generic instantiations append the tags of their type arguments
//
// For example, Box[Item] declared in github.com/acme/inv yields
// github.com::acme::inv::Box<github.com::acme::inv::Item>.
func For(t reflect.Type) (Ty, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Implements(taggedType) {
		return reflect.Zero(t).Interface().(Tagged).TypeTag(), nil
	}
	if reflect.PointerTo(t).Implements(taggedType) {
		return reflect.New(t).Interface().(Tagged).TypeTag(), nil
	}
	if t.Name() == "" {
		return Ty{}, fmt.Errorf("type %s is unnamed and has no type tag", t)
	}
	return fromQualifiedName(t.PkgPath(), t.Name()), nil
}

// fromQualifiedName builds a tag from a package path and a reflect type
// name, which for generic instantiations looks like
// "Box[github.com/acme/inv.Item,int]".
func fromQualifiedName(pkgPath, name string) Ty {
	base, args, generic := strings.Cut(name, "[")

	var t Ty
	if pkgPath != "" {
		t.Path = append(t.Path, strings.Split(pkgPath, "/")...)
	}
	t.Path = append(t.Path, base)

	if generic {
		for _, arg := range splitTypeArgs(strings.TrimSuffix(args, "]")) {
			t.Params = append(t.Params, fromTypeArg(strings.TrimSpace(arg)))
		}
	}
	return t
}

// fromTypeArg converts one type argument as spelled by reflect. Named
// arguments ("github.com/acme/inv.Item[...]") are tagged like named
// types; anything else ("[]int", "map[string]int") is kept verbatim as
// a single segment with tag-reserved characters replaced.
func fromTypeArg(arg string) Ty {
	head, _, _ := strings.Cut(arg, "[")
	if isQualifiedIdent(head) {
		dot := strings.LastIndex(head, ".")
		return fromQualifiedName(head[:dot], arg[dot+1:])
	}
	if isIdent(head) && head == arg {
		return New(arg)
	}
	return New(strings.Map(func(r rune) rune {
		if r < 0x80 && isReserved(byte(r)) {
			return '_'
		}
		return r
	}, arg))
}

// splitTypeArgs splits on commas that are not nested inside brackets
// or parentheses.
func splitTypeArgs(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// isQualifiedIdent matches "path/to/pkg.Name".
func isQualifiedIdent(s string) bool {
	dot := strings.LastIndex(s, ".")
	if dot <= 0 || dot == len(s)-1 {
		return false
	}
	if strings.ContainsAny(s, " *()[]{}") {
		return false
	}
	return isIdent(s[dot+1:])
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'):
		case i > 0 && '0' <= r && r <= '9':
		case r >= 0x80:
		default:
			return false
		}
	}
	return true
}
