package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casstore/internal/digest"
)

type node struct {
	Name   string    `json:"name"`
	Parent Ref[node] `json:"parent"`
}

func TestWriteRefAndLoad(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		root, err := WriteRef(ctx, s, node{Name: "root"})
		require.NoError(t, err)
		child, err := WriteRef(ctx, s, node{Name: "child", Parent: root})
		require.NoError(t, err)

		got, ok, err := Load(ctx, s, child)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "child", got.Name)
		assert.Equal(t, root, got.Parent)

		parent, ok, err := Load(ctx, s, got.Parent)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "root", parent.Name)
		assert.True(t, parent.Parent.IsZero())
	})
}

func TestRefHashesLikeItsHash(t *testing.T) {
	h := digest.MustDigest("target")
	type viaRef struct{ R Ref[Foo] }
	type viaHash struct{ H digest.ContentHash }

	assert.Equal(t, digest.MustDigest(viaHash{H: h}), digest.MustDigest(viaRef{R: RefTo[Foo](h)}))
}

func TestRefText(t *testing.T) {
	r := RefTo[Foo](digest.MustDigest(Foo{Inner: 1}))

	data, err := json.Marshal(map[string]Ref[Foo]{"r": r})
	require.NoError(t, err)
	assert.Equal(t, `{"r":"`+r.String()+`"}`, string(data))

	var back map[string]Ref[Foo]
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back["r"])
	assert.Equal(t, r.Hash(), back["r"].Hash())
}
