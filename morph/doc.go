// Package morph owns the in-memory morphology model: points, sections,
// neurites, the soma and the Morphology arena that ties them together.
//
// Sections live in an arena keyed by id. Each Section stores the id of its
// parent and an ordered list of child ids, so the tree holds no pointer
// cycles. A loader builds a Morphology once (see Builder) and hands it to
// the traversal, transform, checks and sholl packages. Those packages read
// the tree or overwrite point coordinates; none of them add or remove
// sections.
//
// Errors: StructuralError for malformed trees, GeometryError for invalid
// transform input, ErrMissingSomaCenter for radial analysis without a soma.
package morph
