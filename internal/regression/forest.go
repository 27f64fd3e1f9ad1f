package regression

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Options configures forest fitting
type Options struct {
	Trees          int
	Seed           uint64
	MinSamplesLeaf int
	MaxDepth       int // 0 grows trees until leaves are pure
}

// DefaultOptions mirrors the production settings: 100 trees, seed 42
func DefaultOptions() Options {
	return Options{Trees: 100, Seed: 42, MinSamplesLeaf: 1}
}

var (
	ErrNoSamples         = errors.New("no training samples")
	ErrDimensionMismatch = errors.New("feature rows and targets differ in length")
)

// Forest is a bagged ensemble of regression trees
type Forest struct {
	trees    []*node
	features int
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

// Fit trains a forest on the rows of x against y.
// Each tree draws its bootstrap sample from a stream derived from the seed
// and the tree index, so fitting is reproducible.
func Fit(x *mat.Dense, y []float64, opts Options) (*Forest, error) {
	n, p := x.Dims()
	if n == 0 {
		return nil, ErrNoSamples
	}
	if n != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrDimensionMismatch, n, len(y))
	}
	if opts.Trees <= 0 {
		opts.Trees = DefaultOptions().Trees
	}
	if opts.MinSamplesLeaf <= 0 {
		opts.MinSamplesLeaf = 1
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}

	f := &Forest{trees: make([]*node, opts.Trees), features: p}
	for t := 0; t < opts.Trees; t++ {
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(t)))
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.IntN(n)
		}
		b := builder{rows: rows, y: y, opts: opts}
		f.trees[t] = b.grow(idx, 0)
	}
	return f, nil
}

// Predict averages the tree outputs for one feature vector
func (f *Forest) Predict(features []float64) float64 {
	if len(f.trees) == 0 || len(features) != f.features {
		return math.NaN()
	}
	out := make([]float64, len(f.trees))
	for i, t := range f.trees {
		out[i] = t.predict(features)
	}
	return stat.Mean(out, nil)
}

// Score returns the coefficient of determination on the given data
func (f *Forest) Score(x *mat.Dense, y []float64) float64 {
	n, _ := x.Dims()
	estimates := make([]float64, n)
	for i := 0; i < n; i++ {
		estimates[i] = f.Predict(mat.Row(nil, i, x))
	}
	return stat.RSquaredFrom(estimates, y, nil)
}

// Size returns the number of trees
func (f *Forest) Size() int { return len(f.trees) }

func (n *node) predict(features []float64) float64 {
	for !n.leaf {
		if features[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type builder struct {
	rows [][]float64
	y    []float64
	opts Options
}

func (b *builder) targets(idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = b.y[j]
	}
	return out
}

func (b *builder) grow(idx []int, depth int) *node {
	ys := b.targets(idx)
	leaf := &node{leaf: true, value: stat.Mean(ys, nil)}

	if len(idx) < 2*b.opts.MinSamplesLeaf || (b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth) {
		return leaf
	}
	if floats.Max(ys) == floats.Min(ys) {
		return leaf
	}

	feature, threshold, ok := b.bestSplit(idx, floats.Sum(ys))
	if !ok {
		return leaf
	}

	var left, right []int
	for _, j := range idx {
		if b.rows[j][feature] <= threshold {
			left = append(left, j)
		} else {
			right = append(right, j)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.grow(left, depth+1),
		right:     b.grow(right, depth+1),
	}
}

// bestSplit maximises sumL²/nL + sumR²/nR, which minimises squared error.
func (b *builder) bestSplit(idx []int, total float64) (int, float64, bool) {
	n := len(idx)
	parent := total * total / float64(n)
	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, n)
	features := len(b.rows[idx[0]])
	for f := 0; f < features; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.rows[sorted[a]][f] < b.rows[sorted[c]][f]
		})

		sumLeft := 0.0
		for k := 1; k < n; k++ {
			sumLeft += b.y[sorted[k-1]]
			lo, hi := b.rows[sorted[k-1]][f], b.rows[sorted[k]][f]
			if lo == hi {
				continue
			}
			if k < b.opts.MinSamplesLeaf || n-k < b.opts.MinSamplesLeaf {
				continue
			}
			sumRight := total - sumLeft
			score := sumLeft*sumLeft/float64(k) + sumRight*sumRight/float64(n-k)
			if gain := score - parent; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold == hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
