package ml

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// Node es un nodo de un árbol CART guardado en forma plana.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"` // fracción ponderada de positivos en el nodo
	Leaf      bool    `json:"leaf"`
}

// Tree es un árbol de decisión binario; el nodo 0 es la raíz.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Proba devuelve la probabilidad de la clase positiva para x.
func (t *Tree) Proba(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth es la profundidad máxima del árbol (una hoja sola tiene profundidad 0).
func (t *Tree) Depth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return d
		}
		return max(walk(n.Left, d+1), walk(n.Right, d+1))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0, 0)
}

type treeBuilder struct {
	X               [][]float64
	y               []int
	w               []float64
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	rng             *rand.Rand
	nodes           []Node
}

func (b *treeBuilder) fit(idx []int) Tree {
	b.nodes = b.nodes[:0]
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	pos, total := b.weights(idx)
	value := 0.0
	if total > 0 {
		value = pos / total
	}
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Value: value})

	if depth >= b.maxDepth || len(idx) < b.minSamplesSplit || pos == 0 || pos == total {
		return self
	}
	feature, threshold, ok := b.bestSplit(idx, pos, total)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: value}
	return self
}

func (b *treeBuilder) weights(idx []int) (pos, total float64) {
	for _, i := range idx {
		total += b.w[i]
		if b.y[i] == 1 {
			pos += b.w[i]
		}
	}
	return pos, total
}

// bestSplit busca entre maxFeatures columnas al azar el corte que minimiza el Gini ponderado.
func (b *treeBuilder) bestSplit(idx []int, pos, total float64) (int, float64, bool) {
	width := len(b.X[idx[0]])
	features := b.rng.Perm(width)[:b.maxFeatures]

	best := gini(pos, total) * total
	bestFeature, bestThreshold, found := -1, 0.0, false

	order := make([]int, len(idx))
	for _, f := range features {
		copy(order, idx)
		slices.SortFunc(order, func(p, q int) int { return cmp.Compare(b.X[p][f], b.X[q][f]) })

		var lPos, lTotal float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			lTotal += b.w[i]
			if b.y[i] == 1 {
				lPos += b.w[i]
			}
			cur, next := b.X[i][f], b.X[order[k+1]][f]
			if cur == next {
				continue
			}
			rPos, rTotal := pos-lPos, total-lTotal
			score := gini(lPos, lTotal)*lTotal + gini(rPos, rTotal)*rTotal
			if score < best-1e-12 {
				best = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				if bestThreshold >= next {
					bestThreshold = cur
				}
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(pos, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := pos / total
	return 1 - p*p - (1-p)*(1-p)
}
