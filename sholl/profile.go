package sholl

import (
	"fmt"
)

// Profile pairs each radius with its crossing count.
type Profile struct {
	Radii  []float64
	Counts []int
}

// NewProfile checks that radii and counts line up.
func NewProfile(radii []float64, counts []int) (Profile, error) {
	if len(radii) != len(counts) {
		return Profile{}, fmt.Errorf("sholl: %d radii but %d counts", len(radii), len(counts))
	}
	return Profile{Radii: radii, Counts: counts}, nil
}

// Len returns the number of bins.
func (p Profile) Len() int { return len(p.Radii) }

// Total returns the sum of all counts.
func (p Profile) Total() int {
	total := 0
	for _, c := range p.Counts {
		total += c
	}
	return total
}

// Peak returns the first radius with the largest count. ok is false for an
// empty profile.
func (p Profile) Peak() (radius float64, count int, ok bool) {
	for i, c := range p.Counts {
		if !ok || c > count {
			radius, count, ok = p.Radii[i], c, true
		}
	}
	return radius, count, ok
}
