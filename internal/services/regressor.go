package services

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Regressor maps a fixed-width window of observations to the next observation.
type Regressor interface {
	Fit(features [][]float64, labels []float64) error
	Predict(window []float64) float64
}

var errEmptyTrainingSet = errors.New("regressor: empty training set")

const (
	// ridgePenalty is scaled by the trace of the Gram matrix so the baseline
	// stays solvable for constant or collinear windows.
	ridgePenalty = 1e-6
	minSplitGain = 1e-12
)

// GradientBoostingRegressor is a boosted ensemble of shallow regression trees.
// Boosting starts from a ridge linear baseline instead of the label mean, which
// lets trending series extrapolate past the largest value seen in training.
// Fitting is deterministic: no sampling, ties resolved by feature order.
type GradientBoostingRegressor struct {
	Estimators   int
	LearningRate float64
	MaxDepth     int

	means     []float64
	intercept float64
	coef      []float64
	trees     []*treeNode
}

// NewGradientBoostingRegressor creates an unfitted regressor.
func NewGradientBoostingRegressor(estimators int, learningRate float64, maxDepth int) *GradientBoostingRegressor {
	return &GradientBoostingRegressor{
		Estimators:   estimators,
		LearningRate: learningRate,
		MaxDepth:     maxDepth,
	}
}

// Fit trains the baseline and the tree ensemble on (window -> next value) pairs.
func (g *GradientBoostingRegressor) Fit(features [][]float64, labels []float64) error {
	if len(features) == 0 {
		return errEmptyTrainingSet
	}
	if len(features) != len(labels) {
		return fmt.Errorf("regressor: %d feature rows but %d labels", len(features), len(labels))
	}
	width := len(features[0])
	if width == 0 {
		return errors.New("regressor: feature rows are empty")
	}
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("regressor: row %d has %d features, expected %d", i, len(row), width)
		}
	}

	if err := g.fitBaseline(features, labels); err != nil {
		return err
	}

	current := make([]float64, len(labels))
	for i, row := range features {
		current[i] = g.baseline(row)
	}

	indices := make([]int, len(labels))
	for i := range indices {
		indices[i] = i
	}

	residuals := make([]float64, len(labels))
	g.trees = g.trees[:0]
	for m := 0; m < g.Estimators; m++ {
		maxResidual := 0.0
		for i := range labels {
			residuals[i] = labels[i] - current[i]
			maxResidual = math.Max(maxResidual, math.Abs(residuals[i]))
		}
		if maxResidual < minSplitGain {
			break
		}

		tree := buildTree(features, residuals, indices, 0, g.MaxDepth)
		g.trees = append(g.trees, tree)
		for i, row := range features {
			current[i] += g.LearningRate * tree.predict(row)
		}
	}

	return nil
}

// Predict returns the model output for one window. It does not modify window.
func (g *GradientBoostingRegressor) Predict(window []float64) float64 {
	out := g.baseline(window)
	for _, tree := range g.trees {
		out += g.LearningRate * tree.predict(window)
	}
	return out
}

func (g *GradientBoostingRegressor) baseline(row []float64) float64 {
	value := g.intercept
	for j, c := range g.coef {
		value += c * (row[j] - g.means[j])
	}
	return value
}

func (g *GradientBoostingRegressor) fitBaseline(features [][]float64, labels []float64) error {
	rows, cols := len(features), len(features[0])

	g.means = make([]float64, cols)
	for _, row := range features {
		for j, v := range row {
			g.means[j] += v
		}
	}
	for j := range g.means {
		g.means[j] /= float64(rows)
	}
	g.intercept = calculateMeanFloat64(labels)

	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i, row := range features {
		for j, v := range row {
			x.Set(i, j, v-g.means[j])
		}
		y.SetVec(i, labels[i]-g.intercept)
	}

	var gram mat.Dense
	gram.Mul(x.T(), x)
	penalty := ridgePenalty * (1 + mat.Trace(&gram))
	for j := 0; j < cols; j++ {
		gram.Set(j, j, gram.At(j, j)+penalty)
	}

	var rhs mat.VecDense
	rhs.MulVec(x.T(), y)

	var coef mat.VecDense
	if err := coef.SolveVec(&gram, &rhs); err != nil {
		// A condition warning still carries a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("regressor: baseline solve failed: %w", err)
		}
	}

	g.coef = make([]float64, cols)
	for j := range g.coef {
		g.coef[j] = coef.AtVec(j)
	}
	return nil
}

type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(x []float64) float64 {
	for n.left != nil {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type treeSplit struct {
	feature   int
	threshold float64
	gain      float64
}

func buildTree(features [][]float64, targets []float64, idx []int, depth, maxDepth int) *treeNode {
	node := &treeNode{value: meanAt(targets, idx)}
	if depth >= maxDepth || len(idx) < 2 {
		return node
	}

	split, ok := bestSplit(features, targets, idx)
	if !ok {
		return node
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if features[i][split.feature] <= split.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	node.feature = split.feature
	node.threshold = split.threshold
	node.left = buildTree(features, targets, left, depth+1, maxDepth)
	node.right = buildTree(features, targets, right, depth+1, maxDepth)
	return node
}

// bestSplit picks the threshold with the largest reduction in squared error.
func bestSplit(features [][]float64, targets []float64, idx []int) (treeSplit, bool) {
	n := len(idx)
	total := 0.0
	for _, i := range idx {
		total += targets[i]
	}
	parentScore := total * total / float64(n)

	best := treeSplit{gain: minSplitGain}
	found := false
	order := make([]int, n)

	for f := 0; f < len(features[idx[0]]); f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool {
			return features[order[a]][f] < features[order[b]][f]
		})

		leftSum := 0.0
		for k := 0; k < n-1; k++ {
			leftSum += targets[order[k]]
			lo, hi := features[order[k]][f], features[order[k+1]][f]
			if lo == hi {
				continue
			}

			nl, nr := float64(k+1), float64(n-k-1)
			rightSum := total - leftSum
			gain := leftSum*leftSum/nl + rightSum*rightSum/nr - parentScore
			if gain > best.gain {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = treeSplit{feature: f, threshold: threshold, gain: gain}
				found = true
			}
		}
	}

	return best, found
}

func meanAt(values []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}
