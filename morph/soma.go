package morph

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// SomaType describes how the soma points should be read.
type SomaType int

const (
	SomaUndefined SomaType = iota
	SomaSinglePoint
	SomaThreePointCylinders
	SomaCylinders
	SomaSimpleContour
)

func (t SomaType) String() string {
	switch t {
	case SomaUndefined:
		return "undefined"
	case SomaSinglePoint:
		return "single_point"
	case SomaThreePointCylinders:
		return "three_point_cylinders"
	case SomaCylinders:
		return "cylinders"
	case SomaSimpleContour:
		return "simple_contour"
	default:
		return fmt.Sprintf("SomaType(%d)", int(t))
	}
}

// Soma anchors the neurites. It is not part of the section tree; neurites
// only start near it. The centre and radius are derived from Points so that
// transforms of the points carry them along.
type Soma struct {
	Type   SomaType
	Points []Point
}

// Center returns the soma centre. Contours use the mean of their points;
// every other representation uses the first point.
func (s *Soma) Center() (r3.Vector, error) {
	if s == nil || len(s.Points) == 0 {
		return r3.Vector{}, ErrMissingSomaCenter
	}
	if s.Type != SomaSimpleContour {
		return s.Points[0].Vec(), nil
	}
	var sum r3.Vector
	for _, p := range s.Points {
		sum = sum.Add(p.Vec())
	}
	return sum.Mul(1 / float64(len(s.Points))), nil
}

// Radius returns the soma radius: the mean distance from the centre for a
// contour, otherwise the radius of the first point. Zero when undefined.
func (s *Soma) Radius() float64 {
	if s == nil || len(s.Points) == 0 {
		return 0
	}
	if s.Type != SomaSimpleContour {
		return s.Points[0].R
	}
	c, _ := s.Center()
	var total float64
	for _, p := range s.Points {
		total += p.Vec().Distance(c)
	}
	return total / float64(len(s.Points))
}

func (s *Soma) clone() *Soma {
	if s == nil {
		return nil
	}
	return &Soma{Type: s.Type, Points: append([]Point(nil), s.Points...)}
}
