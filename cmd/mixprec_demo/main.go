// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// mixprec_demo builds a demo forward graph, an MLP or a single attention
// layer, rewrites it for mixed precision and reports what the pass did.
package main

import (
	"flag"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/gomlx/mixprec"
	"github.com/gomlx/mixprec/internal/sets"
	"github.com/gomlx/mixprec/ir"
	"github.com/gomlx/mixprec/optypes"
	"github.com/gomlx/mixprec/shapes"
)

var (
	flagMixed = flag.String("mixed", "Float16", "Mixed (reduced precision) dtype to rewrite the graph for. "+
		"Typically Float16 or BFloat16.")
	flagModel    = flag.String("model", "mlp", "Demo graph to rewrite: \"mlp\" or \"attention\".")
	flagBatch    = flag.Int("batch", 32, "Batch size of the demo graph input.")
	flagFeatures = flag.Int("features", 256, "Number of input features of the MLP graph.")
	flagHidden   = flag.Int("hidden", 512, "Size of the hidden layer of the MLP graph.")
	flagClasses  = flag.Int("classes", 10, "Number of output classes of the MLP graph.")
	flagSeqLen   = flag.Int("seqlen", 128, "Sequence length of the attention graph.")
	flagDim      = flag.Int("dim", 64, "Head dimension of the attention graph.")
	flagList     = flag.Bool("list", false, "Print the full node listing of the graph before and after the rewrite.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	mixed := must.M1(dtypes.DTypeString(*flagMixed))
	var g *ir.Graph
	switch *flagModel {
	case "mlp":
		g = buildMLP(*flagBatch, *flagFeatures, *flagHidden, *flagClasses)
	case "attention":
		g = buildAttention(*flagBatch, *flagSeqLen, *flagDim)
	default:
		klog.Errorf("Unknown model %q given with -model: valid values are \"mlp\" and \"attention\".", *flagModel)
		os.Exit(1)
	}
	rewritten, stats, err := mixprec.RewriteWithStats(g, mixprec.Config{MixedDType: mixed})
	if err != nil {
		klog.Errorf("Rewrite for %s failed: %+v", mixed, err)
		os.Exit(1)
	}
	report(g, rewritten, mixed, stats)
}

// buildMLP returns the forward pass of a 2-layer MLP with a logistic head:
// two matmuls the pass moves to the mixed dtype, a Tanh that follows them,
// and a Logistic that stays in Float32.
func buildMLP(batch, features, hidden, classes int) *ir.Graph {
	g := ir.New("mlp_forward")
	input := ir.Parameter(g, "input", shapes.Make(dtypes.Float32, batch, features))
	w1 := ir.Parameter(g, "layer1/weights", shapes.Make(dtypes.Float32, features, hidden))
	w2 := ir.Parameter(g, "layer2/weights", shapes.Make(dtypes.Float32, hidden, classes))
	layer1 := ir.Tanh(ir.DotGeneral(input, []int{1}, nil, w1, []int{0}, nil))
	logits := ir.DotGeneral(layer1, []int{1}, nil, w2, []int{0}, nil)
	g.SetOutputs(ir.Logistic(logits))
	return g
}

// buildAttention returns one attention layer with a sigmoid in place of the
// softmax. The two batched matmuls move to the mixed dtype and the scores
// scaling follows them, while the sigmoid forces a cast back to Float32 in
// the middle of the layer.
func buildAttention(batch, seqLen, dim int) *ir.Graph {
	g := ir.New("attention_forward")
	query := ir.Parameter(g, "query", shapes.Make(dtypes.Float32, batch, seqLen, dim))
	key := ir.Parameter(g, "key", shapes.Make(dtypes.Float32, batch, seqLen, dim))
	value := ir.Parameter(g, "value", shapes.Make(dtypes.Float32, batch, seqLen, dim))
	scores := ir.DotGeneral(query, []int{2}, []int{0}, key, []int{2}, []int{0})
	scaled := ir.Mul(scores, ir.Scalar(g, dtypes.Float32, 1/math.Sqrt(float64(dim))))
	weights := ir.Logistic(scaled)
	g.SetOutputs(ir.DotGeneral(weights, []int{2}, []int{0}, value, []int{1}, []int{0}))
	return g
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == 1 {
				s = headerRowStyle
				return
			}
			switch {
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

func report(before, after *ir.Graph, mixed dtypes.DType, stats mixprec.Stats) {
	fmt.Println(titleStyle.Render("Rewrite for " + mixed.String()))
	table := newPlainTable(false)
	table.Row("nodes visited", humanize.Comma(int64(stats.NodesVisited)))
	table.Row("always mixed", humanize.Comma(int64(stats.Always)))
	table.Row("follow", humanize.Comma(int64(stats.Follow)))
	table.Row("follow moved to "+mixed.String(), humanize.Comma(int64(stats.FollowMixed)))
	table.Row("never mixed", humanize.Comma(int64(stats.Never)))
	table.Row("pass-through", humanize.Comma(int64(stats.PassThrough)))
	table.Row("nodes moved to "+mixed.String(), humanize.Comma(int64(stats.NodesMixed)))
	table.Row("casts inserted", humanize.Comma(int64(stats.CastsInserted)))
	table.Row("outputs restored", humanize.Comma(int64(stats.OutputsRestored)))
	fmt.Println(table.Render())

	fmt.Println(titleStyle.Render("Graphs"))
	table = newPlainTable(true)
	table.Row("Graph", "Nodes", "Parameters", "Value Bytes")
	table.Row("before", humanize.Comma(int64(before.NumNodes())),
		humanize.Comma(int64(before.NumParameters())), humanize.Bytes(uint64(graphMemory(before))))
	table.Row("after", humanize.Comma(int64(after.NumNodes())),
		humanize.Comma(int64(after.NumParameters())), humanize.Bytes(uint64(graphMemory(after))))
	fmt.Println(table.Render())

	fmt.Println(titleStyle.Render("Nodes Per DType"))
	table = newPlainTable(true)
	table.Row("DType", "Before", "After")
	beforeCensus, afterCensus := dtypeCensus(before), dtypeCensus(after)
	seen := sets.Make[dtypes.DType](len(beforeCensus) + len(afterCensus))
	for dtype := range beforeCensus {
		seen.Insert(dtype)
	}
	for dtype := range afterCensus {
		seen.Insert(dtype)
	}
	for _, dtype := range slices.Sorted(maps.Keys(seen)) {
		table.Row(dtype.String(),
			humanize.Comma(int64(beforeCensus[dtype])),
			humanize.Comma(int64(afterCensus[dtype])))
	}
	fmt.Println(table.Render())

	if *flagList {
		fmt.Println(titleStyle.Render("Before"))
		fmt.Println(before.String())
		fmt.Println(titleStyle.Render("After"))
		fmt.Println(after.String())
	}
}

// graphMemory returns the bytes needed to materialize every node of the graph
// at once, an upper bound on the arena footprint of one evaluation.
func graphMemory(g *ir.Graph) uintptr {
	var total uintptr
	for _, node := range g.Nodes() {
		if node.Shape().IsTuple() {
			continue // Tuple elements are counted where they are produced.
		}
		total += node.Shape().Memory()
	}
	return total
}

// dtypeCensus counts graph nodes per dtype. Casts are excluded: they are
// plumbing added or removed by the pass, not computation.
func dtypeCensus(g *ir.Graph) map[dtypes.DType]int {
	census := make(map[dtypes.DType]int)
	for _, node := range g.Nodes() {
		if node.Shape().IsTuple() || node.OpType() == optypes.ConvertDType {
			continue
		}
		census[node.DType()]++
	}
	return census
}
