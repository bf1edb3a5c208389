package digest

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"
	"sync"
)

var (
	canonicalEncoderType = reflect.TypeFor[CanonicalEncoder]()
	charType             = reflect.TypeFor[Char]()
	jsonNumberType       = reflect.TypeFor[json.Number]()
)

// Encode writes the canonical encoding of v. Unlike Digest, a pointer
// passed here is an optional: nil writes 0x00 and non-nil writes 0x01
// and the pointee. CanonicalEncoder implementations call Encode for
// their fields.
func (e *Encoder) Encode(v any) error {
	return e.encodeValue(reflect.ValueOf(v))
}

func (e *Encoder) encodeTop(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return e.encodeValue(rv)
}

func (e *Encoder) encodeValue(v reflect.Value) error {
	// Nil interface: nothing, like a JSON null.
	if !v.IsValid() {
		return nil
	}

	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxDepth {
		return unsupported("nesting exceeds %d levels (cyclic value?)", maxDepth)
	}

	t := v.Type()
	switch t.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return e.None()
		}
		if err := e.write([]byte{1}); err != nil {
			return err
		}
		return e.encodeValue(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return e.encodeValue(v.Elem())
	}

	if enc, ok := canonicalEncoderOf(v); ok {
		if err := enc.EncodeCanonical(e); err != nil {
			return asEncodeError(err)
		}
		return nil
	}

	switch t {
	case charType:
		return e.Char(rune(v.Int()))
	case jsonNumberType:
		return e.encodeJSONNumber(json.Number(v.String()))
	}

	switch t.Kind() {
	case reflect.Bool:
		return e.Bool(v.Bool())
	case reflect.Int8:
		return e.Int8(int8(v.Int()))
	case reflect.Int16:
		return e.Int16(int16(v.Int()))
	case reflect.Int32:
		return e.Int32(int32(v.Int()))
	case reflect.Int64, reflect.Int:
		return e.Int64(v.Int())
	case reflect.Uint8:
		return e.Uint8(uint8(v.Uint()))
	case reflect.Uint16:
		return e.Uint16(uint16(v.Uint()))
	case reflect.Uint32:
		return e.Uint32(uint32(v.Uint()))
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return e.Uint64(v.Uint())
	case reflect.Float32:
		return e.Float32(float32(v.Float()))
	case reflect.Float64:
		return e.Float64(v.Float())
	case reflect.String:
		return e.String(v.String())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return e.Bytes(v.Bytes())
		}
		return e.encodeElements(v)
	case reflect.Array:
		return e.encodeElements(v)
	case reflect.Map:
		return e.encodeMap(v)
	case reflect.Struct:
		return e.encodeStruct(v)
	case reflect.Chan, reflect.Func:
		return &EncodeError{Kind: KindUndefinedLength, Message: "cannot encode " + t.String() + ": length unknown"}
	default:
		return unsupported("cannot encode %s", t)
	}
}

// canonicalEncoderOf finds an EncodeCanonical method on v or *v. Values
// that are not addressable are copied so pointer receivers still apply.
func canonicalEncoderOf(v reflect.Value) (CanonicalEncoder, bool) {
	t := v.Type()
	if t.Implements(canonicalEncoderType) {
		return v.Interface().(CanonicalEncoder), true
	}
	if !reflect.PointerTo(t).Implements(canonicalEncoderType) {
		return nil, false
	}
	if !v.CanAddr() {
		cp := reflect.New(t).Elem()
		cp.Set(v)
		v = cp
	}
	return v.Addr().Interface().(CanonicalEncoder), true
}

func (e *Encoder) encodeElements(v reflect.Value) error {
	n := v.Len()
	if err := e.Len(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := e.encodeValue(v.Index(i)); err != nil {
			return prefixError(err, "[%d]", i)
		}
	}
	return nil
}

type encodedEntry struct {
	key, value []byte
}

// encodeMap writes entries sorted bytewise by encoded key, then by
// encoded value. The order is independent of Go's randomized map
// iteration and of how the map was built.
func (e *Encoder) encodeMap(v reflect.Value) error {
	entries := make([]encodedEntry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := e.encodeDetached(iter.Key())
		if err != nil {
			return prefixError(err, "map key")
		}
		value, err := e.encodeDetached(iter.Value())
		if err != nil {
			return prefixError(err, "map value")
		}
		entries = append(entries, encodedEntry{key: key, value: value})
	}
	slices.SortFunc(entries, func(a, b encodedEntry) int {
		if c := bytes.Compare(a.key, b.key); c != 0 {
			return c
		}
		return bytes.Compare(a.value, b.value)
	})

	if err := e.Len(len(entries)); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := e.write(entry.key); err != nil {
			return err
		}
		if err := e.write(entry.value); err != nil {
			return err
		}
	}
	return nil
}

// encodeDetached encodes v into its own buffer, keeping the current depth.
func (e *Encoder) encodeDetached(v reflect.Value) ([]byte, error) {
	var buf bytes.Buffer
	sub := &Encoder{w: &buf, depth: e.depth}
	if err := sub.encodeValue(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) encodeStruct(v reflect.Value) error {
	t := v.Type()
	// struct{} is a unit and contributes nothing.
	if t.NumField() == 0 {
		return nil
	}
	info := structInfoFor(t)
	if len(info.fields) == 0 && info.opaque {
		return unsupported("%s has no exported fields", t)
	}
	if err := e.Len(len(info.fields)); err != nil {
		return err
	}
	for _, f := range info.fields {
		if err := e.encodeValue(v.Field(f.index)); err != nil {
			return prefixError(err, "field %s", f.name)
		}
	}
	return nil
}

type structField struct {
	index int
	name  string
}

type structInfo struct {
	fields []structField
	// opaque is set when unexported fields were skipped.
	opaque bool
}

var structCache sync.Map // reflect.Type -> *structInfo

func structInfoFor(t reflect.Type) *structInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo)
	}
	info := &structInfo{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			info.opaque = true
			continue
		}
		if skipField(f) {
			continue
		}
		info.fields = append(info.fields, structField{index: i, name: f.Name})
	}
	cached, _ := structCache.LoadOrStore(t, info)
	return cached.(*structInfo)
}

// skipField honors `digest:"-"` and `json:"-"`, keeping hashed fields in
// line with the fields a JSON codec would store.
func skipField(f reflect.StructField) bool {
	if f.Tag.Get("digest") == "-" {
		return true
	}
	return f.Tag.Get("json") == "-"
}
