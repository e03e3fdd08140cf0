package morph

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
)

// Point is one sample along a section: a position plus the local radius.
// Points are plain values; transforms replace them wholesale.
type Point struct {
	X, Y, Z float64
	R       float64 // radius, non-negative
}

// Vec returns the position of p.
func (p Point) Vec() r3.Vector { return r3.Vector{X: p.X, Y: p.Y, Z: p.Z} }

// WithVec returns a copy of p moved to v. The radius is kept.
func (p Point) WithVec(v r3.Vector) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z, R: p.R}
}

// Distance returns the Euclidean distance between the positions of p and q.
func (p Point) Distance(q Point) float64 { return p.Vec().Distance(q.Vec()) }

// Segment is the tapered cylinder between two consecutive points of a
// section. Segments are derived on demand and never stored.
type Segment struct {
	Start, End Point
}

// Length returns the distance between the segment end points.
func (s Segment) Length() float64 { return s.Start.Distance(s.End) }

// Direction returns End - Start.
func (s Segment) Direction() r3.Vector { return s.End.Vec().Sub(s.Start.Vec()) }

// SectionType tags a section and, through its root section, a neurite.
// Values follow the SWC structure identifiers.
type SectionType int

const (
	TypeUndefined SectionType = iota
	TypeSoma
	TypeAxon
	TypeBasalDendrite
	TypeApicalDendrite
	TypeCustom // first custom value; anything >= TypeCustom is custom
)

// AllTypes lists the named section types.
var AllTypes = []SectionType{TypeUndefined, TypeSoma, TypeAxon, TypeBasalDendrite, TypeApicalDendrite}

// NeuriteTypes lists the types a neurite root usually carries.
var NeuriteTypes = []SectionType{TypeAxon, TypeBasalDendrite, TypeApicalDendrite}

func (t SectionType) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeSoma:
		return "soma"
	case TypeAxon:
		return "axon"
	case TypeBasalDendrite:
		return "basal_dendrite"
	case TypeApicalDendrite:
		return "apical_dendrite"
	default:
		if t >= TypeCustom {
			return fmt.Sprintf("custom%d", int(t))
		}
		return fmt.Sprintf("SectionType(%d)", int(t))
	}
}

// ParseSectionType accepts the names produced by String.
func ParseSectionType(s string) (SectionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "undefined":
		return TypeUndefined, nil
	case "soma":
		return TypeSoma, nil
	case "axon":
		return TypeAxon, nil
	case "basal_dendrite", "basal":
		return TypeBasalDendrite, nil
	case "apical_dendrite", "apical":
		return TypeApicalDendrite, nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "custom%d", &n); err == nil && n >= int(TypeCustom) {
		return SectionType(n), nil
	}
	return TypeUndefined, fmt.Errorf("unknown section type %q", s)
}
