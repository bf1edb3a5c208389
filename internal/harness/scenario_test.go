package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: basic
description: "one of each"
steps:
  - op: write
    ty: pkg::Foo
    value: { inner: 6 }
  - op: get
    ty: pkg::Foo
    hash: h1
    expect:
      found: true
      value: { inner: 6 }
  - op: get_all
    ty: pkg::Foo
    expect:
      count: 0
  - op: tags
    expect:
      tags: []
assertions:
  - type: count
    ty: pkg::Foo
    count: 1
`))
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Name)
	require.Len(t, s.Steps, 4)
	assert.Equal(t, map[string]any{"inner": 6}, s.Steps[0].Value)
	require.NotNil(t, s.Steps[1].Expect)
	require.NotNil(t, s.Steps[1].Expect.Found)
	assert.True(t, *s.Steps[1].Expect.Found)
	require.NotNil(t, s.Steps[2].Expect.Count)
	assert.Equal(t, 0, *s.Steps[2].Expect.Count, "a zero count is still checked")
	assert.NotNil(t, s.Steps[3].Expect.Tags, "an empty list is still checked")
	assert.Empty(t, s.Steps[3].Expect.Tags)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, 1, *s.Assertions[0].Count)
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "name: x\ndescription: y\nstep: []\n", "field step not found"},
		{"no name", "description: y\nsteps: [{op: tags}]\n", "name is required"},
		{"no description", "name: x\nsteps: [{op: tags}]\n", "description is required"},
		{"no steps", "name: x\ndescription: y\n", "steps list is required"},
		{"no op", "name: x\ndescription: y\nsteps: [{ty: a}]\n", "op is required"},
		{"unknown op", "name: x\ndescription: y\nsteps: [{op: put}]\n", `unknown op "put"`},
		{"write without ty", "name: x\ndescription: y\nsteps: [{op: write, value: 1}]\n", "write requires ty"},
		{"get without document", "name: x\ndescription: y\nsteps: [{op: get, ty: a}]\n", "requires value, raw or hash"},
		{"write with hash", "name: x\ndescription: y\nsteps: [{op: write, ty: a, hash: h1}]\n", "not a hash"},
		{"delete_all without ty", "name: x\ndescription: y\nsteps: [{op: delete_all}]\n", "delete_all requires ty"},
		{"delete_everywhere without document", "name: x\ndescription: y\nsteps: [{op: delete_everywhere}]\n", "requires value, raw or hash"},
		{"count without count", "name: x\ndescription: y\nsteps: [{op: tags}]\nassertions: [{type: count, ty: a}]\n", "count requires ty and count"},
		{"tags without tags", "name: x\ndescription: y\nsteps: [{op: tags}]\nassertions: [{type: tags}]\n", "use [] for none"},
		{"unknown assertion", "name: x\ndescription: y\nsteps: [{op: tags}]\nassertions: [{type: equal}]\n", `unknown type "equal"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\ndescription: y\nsteps: [{op: tags}]\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "x", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
