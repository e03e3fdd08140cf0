package morph

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// branch with errors.Is.
var (
	ErrStructural        = errors.New("structural error")
	ErrGeometry          = errors.New("geometry error")
	ErrDegenerateAxis    = fmt.Errorf("%w: degenerate rotation axis", ErrGeometry)
	ErrMissingSomaCenter = errors.New("morphology has no soma center")
)

// StructuralError reports a malformed tree: a duplicate section id, a cycle
// on the active traversal path, or a reference to a section that does not
// exist. It is fatal to the call that found it.
type StructuralError struct {
	SectionID int
	Reason    string
}

func (e *StructuralError) Error() string {
	if e.SectionID == NoParent {
		return fmt.Sprintf("structural error: %s", e.Reason)
	}
	return fmt.Sprintf("structural error at section %d: %s", e.SectionID, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// structuralf is a small constructor used by the builder and the walkers.
func structuralf(id int, format string, args ...interface{}) error {
	return &StructuralError{SectionID: id, Reason: fmt.Sprintf(format, args...)}
}

// NewStructuralError returns a *StructuralError for section id.
func NewStructuralError(id int, format string, args ...interface{}) error {
	return structuralf(id, format, args...)
}

// GeometryError reports invalid transform input such as a zero-length
// rotation axis or a singular scale factor.
type GeometryError struct {
	Op     string // transform that rejected the input, e.g. "rotate"
	Reason string
	Err    error // more specific sentinel; defaults to ErrGeometry
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *GeometryError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrGeometry
}
