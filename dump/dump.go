// Package dump renders a range tree as a portable, codec-encoded document.
//
// Dumps are meant for inspection and debugging. They describe structure and
// counters, and optionally every posting, but cannot be loaded back into a
// tree.
package dump

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hupe1980/numtree/codec"
	"github.com/hupe1980/numtree/rangetree"
)

// Float is a float64 whose JSON form spells infinities as "+Inf" and "-Inf".
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	case math.IsNaN(v):
		return nil, fmt.Errorf("dump: NaN is not representable")
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"+Inf"`:
		*f = Float(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = Float(math.Inf(-1))
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("dump: invalid float %s: %w", data, err)
	}
	*f = Float(v)
	return nil
}

// Tree is the dump of one tree.
type Tree struct {
	Field       string `json:"field,omitempty"`
	TreeID      uint32 `json:"tree_id"`
	Revision    uint64 `json:"revision"`
	Height      uint32 `json:"height"`
	NumLeaves   int    `json:"num_leaves"`
	NumEntries  int    `json:"num_entries"`
	NumRanges   int    `json:"num_ranges"`
	NumNodes    int    `json:"num_nodes"`
	MemoryUsage int64  `json:"memory_usage"`
	Checksum    uint32 `json:"checksum"`
	Nodes       []Node `json:"nodes"`
}

// Node is one reachable node, listed in pre-order.
type Node struct {
	Index  uint32  `json:"index"`
	Depth  int     `json:"depth"`
	Height uint32  `json:"height"`
	Leaf   bool    `json:"leaf"`
	Split  *Float  `json:"split,omitempty"`
	Left   *uint32 `json:"left,omitempty"`
	Right  *uint32 `json:"right,omitempty"`
	Range  *Range  `json:"range,omitempty"`
}

// Range summarizes the postings of a node.
type Range struct {
	Min         Float     `json:"min"`
	Max         Float     `json:"max"`
	NumEntries  int       `json:"num_entries"`
	NumDeleted  int       `json:"num_deleted"`
	Cardinality uint64    `json:"cardinality"`
	MemoryUsage int64     `json:"memory_usage"`
	Postings    []Posting `json:"postings,omitempty"`
}

// Posting is a single (document, value) pair.
type Posting struct {
	Doc     uint64 `json:"doc"`
	Value   Float  `json:"value"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Options controls what FromTree includes.
type Options struct {
	// Postings includes every posting of every range.
	Postings bool

	// MaxDepth limits the listed nodes to depth <= MaxDepth.
	// 0 = unlimited.
	MaxDepth int
}

// FromTree builds the dump of t. The caller must hold off mutations of t
// for the duration of the call.
func FromTree(field string, t *rangetree.Tree, opts Options) *Tree {
	d := &Tree{
		Field:       field,
		TreeID:      uint32(t.ID()),
		Revision:    t.Revision(),
		Height:      t.Height(),
		NumLeaves:   t.NumLeaves(),
		NumEntries:  t.NumEntries(),
		NumRanges:   t.NumRanges(),
		NumNodes:    t.NumNodes(),
		MemoryUsage: t.MemoryUsage(),
		Checksum:    t.Checksum(),
	}

	type frame struct {
		idx   rangetree.NodeIndex
		depth int
	}
	stack := []frame{{t.RootIndex(), 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.Node(f.idx)
		out := Node{
			Index:  uint32(f.idx),
			Depth:  f.depth,
			Height: n.MaxDepth(),
			Leaf:   n.IsLeaf(),
		}
		if !n.IsLeaf() {
			split := Float(n.SplitValue())
			left, right := uint32(n.Left()), uint32(n.Right())
			out.Split, out.Left, out.Right = &split, &left, &right

			if opts.MaxDepth == 0 || f.depth < opts.MaxDepth {
				stack = append(stack, frame{n.Right(), f.depth + 1}, frame{n.Left(), f.depth + 1})
			}
		}
		if r := n.Range(); r != nil {
			out.Range = fromRange(r, opts.Postings)
		}
		d.Nodes = append(d.Nodes, out)
	}
	return d
}

func fromRange(r *rangetree.Range, postings bool) *Range {
	out := &Range{
		Min:         Float(r.Min()),
		Max:         Float(r.Max()),
		NumEntries:  r.NumEntries(),
		NumDeleted:  r.NumDeleted(),
		Cardinality: r.Cardinality(),
		MemoryUsage: r.MemoryUsage(),
	}
	if postings && r.NumEntries() > 0 {
		out.Postings = make([]Posting, 0, r.NumEntries())
		for e := range r.Entries() {
			out.Postings = append(out.Postings, Posting{Doc: e.Doc, Value: Float(e.Value), Deleted: e.Deleted})
		}
	}
	return out
}

// Encode marshals d with c (codec.Default when nil) into a block compressed
// with comp.
func Encode(d *Tree, c codec.Codec, comp codec.Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("dump: marshal with %s: %w", c.Name(), err)
	}
	return codec.CompressBlock(data, comp)
}

// Decode reverses Encode.
func Decode(block []byte, c codec.Codec) (*Tree, error) {
	if c == nil {
		c = codec.Default
	}
	data, _, err := codec.DecompressBlock(block)
	if err != nil {
		return nil, err
	}
	var d Tree
	if err := c.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("dump: unmarshal with %s: %w", c.Name(), err)
	}
	return &d, nil
}
