// Package sholl computes soma-centred radial crossing profiles.
//
// A segment crosses the sphere of radius r around the centre when
// min(d0, d1) <= r < max(d0, d1), where d0 and d1 are the distances of its
// end points. The half-open test counts a segment that ends exactly on a
// sphere once, not twice.
//
// Frequency aggregates a population by summing per-morphology counts over
// identical bins. Members may be computed on parallel workers; the sum does
// not depend on completion order.
package sholl
