package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ForestConfig controls random forest training.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	Seed            uint64
}

// Forest is a fitted random forest classifier over dense feature vectors.
type Forest struct {
	Classes int     `json:"classes"`
	Trees   []*Tree `json:"trees"`
}

// Tree is a fitted CART tree stored as a flat node slice; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either a split (Left/Right set) or a leaf carrying class probabilities.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Value     []float64 `json:"v,omitempty"`
}

func (n Node) leaf() bool {
	return n.Left == 0 && n.Right == 0
}

// FitForest trains a forest on x with integer labels y in [0, classes).
// Per-tree seeds are drawn up front so the result does not depend on goroutine scheduling.
func FitForest(ctx context.Context, x [][]float64, y []int, classes int, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("fit forest: %d samples and %d labels", len(x), len(y))
	}
	if classes < 1 {
		return nil, fmt.Errorf("fit forest: %d classes", classes)
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}

	master := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	seeds := make([]uint64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	forest := &Forest{Classes: classes, Trees: make([]*Tree, cfg.Trees)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := &treeBuilder{
				x:        x,
				y:        y,
				classes:  classes,
				maxDepth: cfg.MaxDepth,
				minSplit: cfg.MinSamplesSplit,
				rng:      rand.New(rand.NewPCG(seeds[i], uint64(i))),
			}
			forest.Trees[i] = b.build()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	return forest, nil
}

// PredictProba averages the leaf class distributions of all trees.
func (f *Forest) PredictProba(features []float64) []float64 {
	proba := make([]float64, f.Classes)
	if len(f.Trees) == 0 {
		return proba
	}
	for _, tree := range f.Trees {
		leaf := tree.leafFor(features)
		for c, p := range leaf.Value {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba
}

func (t *Tree) leafFor(features []float64) Node {
	node := t.Nodes[0]
	for !node.leaf() {
		if features[node.Feature] <= node.Threshold {
			node = t.Nodes[node.Left]
		} else {
			node = t.Nodes[node.Right]
		}
	}
	return node
}

func (t *Tree) validate(classes, width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.leaf() {
			if len(n.Value) != classes {
				return fmt.Errorf("leaf %d has %d classes, want %d", i, len(n.Value), classes)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("node %d splits on feature %d outside width %d", i, n.Feature, width)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children", i)
		}
	}
	return nil
}

type treeBuilder struct {
	x        [][]float64
	y        []int
	classes  int
	maxDepth int
	minSplit int
	rng      *rand.Rand
	nodes    []Node
}

func (b *treeBuilder) build() *Tree {
	n := len(b.x)
	sample := make([]int, n)
	for i := range sample {
		sample[i] = b.rng.IntN(n)
	}
	b.nodes = make([]Node, 0, 64)
	b.grow(sample, 0)
	return &Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(sample []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{})

	counts := b.classCounts(sample)
	if b.pure(counts) || len(sample) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.nodes[idx] = b.leaf(counts, len(sample))
		return idx
	}

	feature, threshold, ok := b.bestSplit(sample, counts)
	if !ok {
		b.nodes[idx] = b.leaf(counts, len(sample))
		return idx
	}

	var left, right []int
	for _, s := range sample {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit samples sqrt(width) features, skipping constant ones until that many
// informative features were evaluated or all were tried.
func (b *treeBuilder) bestSplit(sample []int, parent []float64) (int, float64, bool) {
	width := len(b.x[0])
	mtry := int(math.Sqrt(float64(width)))
	if mtry < 1 {
		mtry = 1
	}

	var (
		bestFeature   = -1
		bestThreshold float64
		bestScore     = math.Inf(1)
		evaluated     int
	)

	order := b.rng.Perm(width)
	values := make([]float64, len(sample))
	sorted := make([]int, len(sample))
	for _, f := range order {
		if evaluated >= mtry {
			break
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for i, s := range sample {
			values[i] = b.x[s][f]
			lo = math.Min(lo, values[i])
			hi = math.Max(hi, values[i])
		}
		if lo == hi {
			continue
		}
		evaluated++

		for i := range sorted {
			sorted[i] = i
		}
		sort.SliceStable(sorted, func(a, c int) bool { return values[sorted[a]] < values[sorted[c]] })

		left := make([]float64, b.classes)
		right := append([]float64(nil), parent...)
		total := float64(len(sample))
		for k := 0; k < len(sorted)-1; k++ {
			label := b.y[sample[sorted[k]]]
			left[label]++
			right[label]--

			cur, next := values[sorted[k]], values[sorted[k+1]]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			score := nl/total*gini(left, nl) + (total-nl)/total*gini(right, total-nl)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) classCounts(sample []int) []float64 {
	counts := make([]float64, b.classes)
	for _, s := range sample {
		counts[b.y[s]]++
	}
	return counts
}

func (b *treeBuilder) pure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func (b *treeBuilder) leaf(counts []float64, n int) Node {
	value := make([]float64, len(counts))
	if n > 0 {
		for c, count := range counts {
			value[c] = count / float64(n)
		}
	}
	return Node{Value: value}
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}
