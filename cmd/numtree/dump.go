package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/numtree"
	"github.com/hupe1980/numtree/codec"
	"github.com/hupe1980/numtree/dump"
	"github.com/hupe1980/numtree/rangetree"
	"github.com/hupe1980/numtree/testutil"
)

type dumpFlags struct {
	workload

	out      string
	codec    string
	compress string
	postings bool
	maxDepth int
	gc       bool
}

func newDumpCmd(rf *rootFlags) *cobra.Command {
	var df dumpFlags

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Load a synthetic workload and dump the resulting tree",
		Long: `Load a synthetic workload and dump the resulting tree.

Without --out the dump is printed as indented JSON. With --out it is written
as a block that "numtree inspect" reads back, compressed with --compress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := df.validate(); err != nil {
				return err
			}
			c, ok := codec.ByName(df.codec)
			if !ok {
				return fmt.Errorf("unknown codec %q", df.codec)
			}
			comp, err := codec.ParseCompression(df.compress)
			if err != nil {
				return err
			}
			if df.out == "" && comp != codec.CompressionNone {
				return errors.New("--compress requires --out")
			}
			logger, err := rf.logger(cmd)
			if err != nil {
				return err
			}

			d, err := buildDump(cmd, logger, &df)
			if err != nil {
				return err
			}

			if df.out == "" {
				data, err := codec.GoJSON{}.MarshalIndent(d, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			block, err := dump.Encode(d, c, comp)
			if err != nil {
				return err
			}
			if err := os.WriteFile(df.out, block, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d nodes to %s (%d bytes, %s, %s)\n",
				len(d.Nodes), df.out, len(block), c.Name(), comp)
			return nil
		},
	}

	fs := cmd.Flags()
	df.bindFlags(fs, 1000)
	fs.StringVarP(&df.out, "out", "o", "", "Write the dump to this file")
	fs.StringVar(&df.codec, "codec", codec.Default.Name(), "Codec (json, go-json)")
	fs.StringVar(&df.compress, "compress", "none", "Compression of the written block (none, lz4, zstd)")
	fs.BoolVar(&df.postings, "postings", false, "Include every posting")
	fs.IntVar(&df.maxDepth, "max-depth", 0, "Only dump nodes up to this depth (0 = all)")
	fs.BoolVar(&df.gc, "gc", false, "Run GC before dumping")
	return cmd
}

func buildDump(cmd *cobra.Command, logger *numtree.Logger, df *dumpFlags) (*dump.Tree, error) {
	ctx := cmd.Context()

	ix := numtree.New(append(df.options(), numtree.WithLogger(logger))...)
	defer ix.Close()

	if _, err := df.load(ctx, ix, testutil.NewRNG(df.seed)); err != nil {
		return nil, err
	}
	if df.gc {
		if _, err := ix.GC(ctx); err != nil {
			return nil, err
		}
	}

	var d *dump.Tree
	err := ix.View(df.field, func(t *rangetree.Tree) error {
		d = dump.FromTree(df.field, t, dump.Options{Postings: df.postings, MaxDepth: df.maxDepth})
		return nil
	})
	return d, err
}

func newInspectCmd() *cobra.Command {
	var (
		codecName string
		nodes     bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Summarize a dump written by \"numtree dump --out\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := codec.ByName(codecName)
			if !ok {
				return fmt.Errorf("unknown codec %q", codecName)
			}
			block, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			d, err := dump.Decode(block, c)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			printDump(cmd.OutOrStdout(), d, nodes)
			return nil
		},
	}
	cmd.Flags().StringVar(&codecName, "codec", codec.Default.Name(), "Codec the dump was written with")
	cmd.Flags().BoolVar(&nodes, "nodes", false, "List every node")
	return cmd
}

func printDump(out io.Writer, d *dump.Tree, nodes bool) {
	fmt.Fprintf(out, "field=%q tree=%d revision=%d checksum=%08x\n", d.Field, d.TreeID, d.Revision, d.Checksum)
	fmt.Fprintf(out, "height=%d leaves=%d ranges=%d entries=%d nodes=%d memory=%dB\n",
		d.Height, d.NumLeaves, d.NumRanges, d.NumEntries, d.NumNodes, d.MemoryUsage)
	if !nodes {
		return
	}
	for _, n := range d.Nodes {
		fmt.Fprintf(out, "%*s#%d", 2*n.Depth, "", n.Index)
		if n.Split != nil {
			fmt.Fprintf(out, " split=%g", float64(*n.Split))
		}
		if r := n.Range; r != nil {
			fmt.Fprintf(out, " [%g, %g] entries=%d card=%d", float64(r.Min), float64(r.Max), r.NumEntries, r.Cardinality)
		}
		fmt.Fprintln(out)
	}
}
