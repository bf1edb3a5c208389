package ty

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "github.com::roach88::casstore::internal::ty::"

type fixture struct {
	Inner int32
}

type box[T any] struct {
	V T
}

type pair[A, B any] struct {
	A A
	B B
}

type named struct{}

func (named) TypeTag() Ty { return New("app", "Named") }

type pointerNamed struct{}

func (*pointerNamed) TypeTag() Ty { return New("app", "PointerNamed") }

func TestStringAndParseRoundTrip(t *testing.T) {
	tests := []string{
		"Foo",
		"a::b::Foo",
		"a::b::Foo<a::b::Bar>",
		"ns::Qux<ns::Bar,ns::Foo<ns::Bar>>",
		"x::Map<int,[]int>",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			parsed, err := Parse(s)
			require.NoError(t, err)
			assert.Equal(t, s, parsed.String())
		})
	}
}

func TestParseStructure(t *testing.T) {
	parsed := MustParse("ns::Qux<ns::Bar,ns::Foo<ns::Bar>>")
	assert.Equal(t, []string{"ns", "Qux"}, parsed.Path)
	require.Len(t, parsed.Params, 2)
	assert.Equal(t, "ns::Bar", parsed.Params[0].String())
	assert.Equal(t, "ns::Foo<ns::Bar>", parsed.Params[1].String())
	assert.Equal(t, "Qux", parsed.Name())
}

func TestParseNormalizesSpelling(t *testing.T) {
	assert.Equal(t, "a::b<c,d::e>", MustParse(" a :: b < c , d::e > ").String())

	decomposed := MustParse("pkg::cafe\u0301")
	precomposed := MustParse("pkg::caf\u00e9")
	assert.True(t, decomposed.Equal(precomposed), "segments are NFC-normalized")
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "a::", "::a", "a<b", "a<>", "a<b>c", "a<b>::c", "a:b", "a<b;c>x", "a,b"} {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid type tag")
		})
	}
}

func TestWithDoesNotAlias(t *testing.T) {
	foo := New("ns", "Foo")
	a := foo.With(New("ns", "A"))
	b := foo.With(New("ns", "B"))
	assert.Equal(t, "ns::Foo<ns::A>", a.String())
	assert.Equal(t, "ns::Foo<ns::B>", b.String())
	assert.Equal(t, "ns::Foo", foo.String())
}

func TestTextMarshaling(t *testing.T) {
	tag := MustParse("a::b::Foo<a::Bar>")
	data, err := json.Marshal(map[string]Ty{"ty": tag})
	require.NoError(t, err)
	assert.Equal(t, `{"ty":"a::b::Foo<a::Bar>"}`, string(data))

	var back map[string]Ty
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, tag.Equal(back["ty"]))
}

func TestOfNamedTypes(t *testing.T) {
	assert.Equal(t, base+"fixture", Of[fixture]().String())
	assert.Equal(t, base+"fixture", Of[*fixture]().String(), "pointers use their element's tag")
	assert.Equal(t, "int", Of[int]().String())
}

func TestOfGenericTypes(t *testing.T) {
	assert.Equal(t, base+"box<"+base+"fixture>", Of[box[fixture]]().String())
	assert.Equal(t, base+"box<int>", Of[box[int]]().String())
	assert.Equal(t,
		base+"pair<"+base+"fixture,"+base+"box<"+base+"fixture>>",
		Of[pair[fixture, box[fixture]]]().String())
}

func TestOfDistinguishesInstantiations(t *testing.T) {
	assert.False(t, Of[box[int]]().Equal(Of[box[string]]()))
	assert.False(t, Of[box[fixture]]().Equal(Of[fixture]()))
}

func TestOfTagged(t *testing.T) {
	assert.Equal(t, "app::Named", Of[named]().String())
	assert.Equal(t, "app::PointerNamed", Of[pointerNamed]().String())
	assert.Equal(t, "app::PointerNamed", Of[*pointerNamed]().String())
}

func TestOfIsStable(t *testing.T) {
	assert.Equal(t, Of[pair[int, fixture]]().String(), Of[pair[int, fixture]]().String())
}

func TestForUnnamed(t *testing.T) {
	_, err := For(reflect.TypeFor[struct{ A int }]())
	require.Error(t, err)
	assert.Panics(t, func() { Of[[]int]() })
}

func TestFromTypeArgVerbatim(t *testing.T) {
	assert.Equal(t, "map[string]int", fromTypeArg("map[string]int").String())
	assert.Equal(t, "func(int_ string)", fromTypeArg("func(int, string)").String())
	assert.Equal(t, "gopkg.in::yaml.v3::Node", fromTypeArg("gopkg.in/yaml.v3.Node").String())
}
