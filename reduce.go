package clutmap

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/sirupsen/logrus"
)

// ReduceMethod picks how an oversized palette is cut down to MaxColors.
type ReduceMethod int

const (
	ReduceDominant ReduceMethod = iota
	ReduceKMeans
)

// Valid reports whether m is one of the declared reduction methods.
func (m ReduceMethod) Valid() bool {
	return m == ReduceDominant || m == ReduceKMeans
}

func (m ReduceMethod) String() string {
	switch m {
	case ReduceKMeans:
		return "kmeans"
	case ReduceDominant:
		return "dominantcolor"
	}
	return fmt.Sprintf("ReduceMethod(%d)", int(m))
}

type weightedColor struct {
	col    Color
	weight float64
}

// Reduce returns at most k colors representative of samples, weighted
// by how often each color occurs. Every returned color occurs in
// samples: cluster centers are snapped to the closest sample color.
// Samples with k or fewer distinct colors are returned deduplicated.
func Reduce(samples []Color, family Family, k int, method ReduceMethod) []Color {
	if k <= 0 || len(samples) == 0 {
		return nil
	}
	counts := make(map[Color]int)
	for _, c := range samples {
		counts[c]++
	}
	unique := make([]Color, 0, len(counts))
	for c := range counts {
		unique = append(unique, c)
	}
	slices.SortFunc(unique, compareColors)
	if len(unique) <= k {
		return unique
	}

	var cands []weightedColor
	if method == ReduceKMeans {
		cands = kmeansCandidates(samples, k)
		if len(cands) == 0 {
			logrus.WithFields(logrus.Fields{
				"function": "Reduce",
				"colors":   len(unique),
				"k":        k,
			}).Warn("kmeans returned no clusters, falling back to dominantcolor")
		}
	}
	if len(cands) == 0 {
		cands = dominantCandidates(samples, k)
	}
	for i := range cands {
		cands[i].col = snap(cands[i].col, unique)
	}
	return selectDiverse(cands, family, k)
}

func kmeansCandidates(samples []Color, k int) []weightedColor {
	// Subsample to keep kmeans tractable on large frames.
	const maxSamples = 12000
	step := max(1, (len(samples)+maxSamples-1)/maxSamples)
	dataset := make(clusters.Observations, 0, min(len(samples), maxSamples))
	for i := 0; i < len(samples); i += step {
		c := samples[i]
		dataset = append(dataset, clusters.Coordinates{
			float64(c[0]) / 255.0,
			float64(c[1]) / 255.0,
			float64(c[2]) / 255.0,
		})
	}
	workK := min(max(k*4, k+2), len(dataset))
	cc, err := kmeans.New().Partition(dataset, workK)
	if err != nil {
		return nil
	}
	out := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		out = append(out, weightedColor{
			col: Color{
				unitToByte(c.Center[0]),
				unitToByte(c.Center[1]),
				unitToByte(c.Center[2]),
			},
			weight: float64(len(c.Observations)),
		})
	}
	// Most populated clusters first.
	slices.SortStableFunc(out, func(a, b weightedColor) int {
		switch {
		case a.weight > b.weight:
			return -1
		case a.weight < b.weight:
			return 1
		}
		return 0
	})
	return out
}

// dominantCandidates runs dominantcolor over the samples laid out as a
// square image. Components are stored as R, G, B whatever the family.
func dominantCandidates(samples []Color, k int) []weightedColor {
	side := max(1, int(math.Ceil(math.Sqrt(float64(len(samples))))))
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for i := range side * side {
		c := samples[min(i, len(samples)-1)]
		img.SetRGBA(i%side, i/side, color.RGBA{R: c[0], G: c[1], B: c[2], A: 255})
	}
	found := dominantcolor.FindWeight(img, max(24, k*8))
	out := make([]weightedColor, 0, len(found)+1)
	for _, c := range found {
		w := c.Weight
		if w <= 0 {
			w = 1e-6
		}
		out = append(out, weightedColor{col: Color{c.RGBA.R, c.RGBA.G, c.RGBA.B}, weight: w})
	}
	if len(out) == 0 {
		// Never hand back an empty palette.
		out = append(out, weightedColor{col: samples[0], weight: 1})
	}
	return out
}

func unitToByte(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v*255))))
}

func snap(c Color, unique []Color) Color {
	best, bestD := unique[0], math.MaxInt
	for _, u := range unique {
		if d := sqDiff(c, u); d < bestD {
			bestD = d
			best = u
		}
	}
	return best
}

// diversityCoords places colors in a roughly perceptual space: L*a*b*
// for RGB, scaled Y/U/V for YUV.
func diversityCoords(c Color, family Family) [3]float64 {
	if family == FamilyYUV {
		return [3]float64{
			float64(c[0]) * 100.0 / 255.0,
			(float64(c[1]) - 128) * 100.0 / 128.0,
			(float64(c[2]) - 128) * 100.0 / 128.0,
		}
	}
	l, a, b := colorful.Color{
		R: float64(c[0]) / 255.0,
		G: float64(c[1]) / 255.0,
		B: float64(c[2]) / 255.0,
	}.Lab()
	return [3]float64{l * 100, a * 100, b * 100}
}

// selectDiverse greedily picks k candidates, seeded by the heaviest,
// each next one maximizing its distance to the picks so far scaled by
// its weight.
func selectDiverse(cands []weightedColor, family Family, k int) []Color {
	type item struct {
		col Color
		pos [3]float64
		w   float64
	}
	items := make([]item, 0, len(cands))
	seen := make(map[Color]int)
	maxW := 0.0
	for _, c := range cands {
		w := max(c.weight, 1e-6)
		// Snapping can merge candidates; pool their weight.
		if i, ok := seen[c.col]; ok {
			items[i].w += w
			maxW = max(maxW, items[i].w)
			continue
		}
		seen[c.col] = len(items)
		items = append(items, item{col: c.col, pos: diversityCoords(c.col, family), w: w})
		maxW = max(maxW, w)
	}
	if len(items) == 0 {
		return nil
	}
	k = min(k, len(items))

	selected := make([]bool, len(items))
	picked := make([]int, 0, k)
	seed := 0
	for i := 1; i < len(items); i++ {
		if items[i].w > items[seed].w {
			seed = i
		}
	}
	selected[seed] = true
	picked = append(picked, seed)

	for len(picked) < k {
		bestIdx, bestScore := -1, -1.0
		for i := range items {
			if selected[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range picked {
				d0 := items[i].pos[0] - items[s].pos[0]
				d1 := items[i].pos[1] - items[s].pos[1]
				d2 := items[i].pos[2] - items[s].pos[2]
				minD2 = min(minD2, d0*d0+d1*d1+d2*d2)
			}
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(items[i].w/maxW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		picked = append(picked, bestIdx)
	}

	out := make([]Color, 0, len(picked))
	for _, i := range picked {
		out = append(out, items[i].col)
	}
	return out
}
