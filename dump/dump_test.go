package dump

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/numtree/codec"
	"github.com/hupe1980/numtree/rangetree"
	"github.com/hupe1980/numtree/testutil"
)

func loadedTree(t *testing.T) *rangetree.Tree {
	t.Helper()
	tree := rangetree.New(rangetree.WithSplitCardinality(2, 8))
	for _, p := range testutil.Sequential(200) {
		tree.Add(p.Doc, p.Value, p.Doc%7 == 0, 1)
	}
	tree.Add(1000, math.Inf(1), false, 1)
	tree.Add(1001, math.Inf(-1), false, 1)
	return tree
}

func TestFromTree(t *testing.T) {
	tree := loadedTree(t)
	d := FromTree("price", tree, Options{Postings: true})

	assert.Equal(t, "price", d.Field)
	assert.Equal(t, uint32(tree.ID()), d.TreeID)
	assert.Equal(t, tree.Checksum(), d.Checksum)
	require.Len(t, d.Nodes, tree.NumNodes())
	assert.Equal(t, uint32(tree.RootIndex()), d.Nodes[0].Index)

	var (
		leaves, entries, ranges int
		mem                     int64
		prevMax                 = math.Inf(-1)
	)
	for _, n := range d.Nodes {
		if n.Range != nil {
			ranges++
			mem += n.Range.MemoryUsage
			assert.Len(t, n.Range.Postings, n.Range.NumEntries)
		}
		if !n.Leaf {
			assert.NotNil(t, n.Split)
			continue
		}
		leaves++
		entries += n.Range.NumEntries
		assert.Zero(t, n.Height)
		if n.Range.NumEntries > 0 {
			assert.GreaterOrEqual(t, float64(n.Range.Min), prevMax)
			prevMax = float64(n.Range.Max)
		}
	}
	assert.Equal(t, tree.NumLeaves(), leaves)
	assert.Equal(t, tree.NumEntries(), entries)
	assert.Equal(t, tree.NumRanges(), ranges)
	assert.Equal(t, tree.MemoryUsage(), mem)
}

func TestFromTree_MaxDepth(t *testing.T) {
	tree := loadedTree(t)

	d := FromTree("", tree, Options{MaxDepth: 1})
	require.Len(t, d.Nodes, 3)
	for _, n := range d.Nodes {
		assert.LessOrEqual(t, n.Depth, 1)
		if n.Range != nil {
			assert.Nil(t, n.Range.Postings)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	tree := loadedTree(t)
	want := FromTree("v", tree, Options{Postings: true})

	codecs := []codec.Codec{codec.JSON{}, codec.GoJSON{}, nil}
	comps := []codec.Compression{codec.CompressionNone, codec.CompressionLZ4, codec.CompressionZSTD}

	for _, c := range codecs {
		for _, comp := range comps {
			block, err := Encode(want, c, comp)
			require.NoError(t, err)

			got, err := Decode(block, c)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestFloat_JSON(t *testing.T) {
	tests := []struct {
		in   Float
		want string
	}{
		{1.5, "1.5"},
		{-2, "-2"},
		{Float(math.Inf(1)), `"+Inf"`},
		{Float(math.Inf(-1)), `"-Inf"`},
	}
	for _, tt := range tests {
		data, err := tt.in.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))

		var back Float
		require.NoError(t, back.UnmarshalJSON(data))
		assert.Equal(t, tt.in, back)
	}

	_, err := Float(math.NaN()).MarshalJSON()
	assert.Error(t, err)

	var f Float
	assert.Error(t, f.UnmarshalJSON([]byte(`"abc"`)))
}

func TestEncode_InfinityInOutput(t *testing.T) {
	tree := rangetree.New()
	tree.Add(1, math.Inf(1), false, 0)

	block, err := Encode(FromTree("", tree, Options{}), codec.JSON{}, codec.CompressionNone)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(block), `"max":"+Inf"`))
}
