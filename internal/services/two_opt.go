package services

import "collection-route-service/internal/domain"

// Improve2Opt applies 2-opt segment reversals to shorten an open path.
// The first and last positions stay fixed, so the route endpoints chosen by
// the caller are preserved.
func Improve2Opt(nodes []domain.Coordinates, order []int, iterations int) []int {
	if iterations <= 0 {
		iterations = 1
	}
	best := append([]int(nil), order...)
	bestDist := pathKm(nodes, best)
	n := len(order)
	for it := 0; it < iterations; it++ {
		improved := false
		for i := 1; i < n-2; i++ {
			for k := i + 1; k < n-1; k++ {
				candidate := twoOptSwap(best, i, k)
				d := pathKm(nodes, candidate)
				if d+1e-6 < bestDist {
					best = candidate
					bestDist = d
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

func twoOptSwap(ord []int, i, k int) []int {
	out := make([]int, len(ord))
	copy(out, ord[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = ord[j]
		pos++
	}
	copy(out[pos:], ord[k+1:])
	return out
}

func pathKm(nodes []domain.Coordinates, order []int) float64 {
	total := 0.0
	for i := 1; i < len(order); i++ {
		total += domain.HaversineKm(nodes[order[i-1]], nodes[order[i]])
	}
	return total
}
