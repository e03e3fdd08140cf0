// Package traversal walks the section tree of a morph.Morphology.
//
// Walks are lazy iterators (iter.Seq2) that can be ranged over any number
// of times. Neurites are entered in stored order and children are visited
// in stored order. A NeuriteFilter decides whether a whole neurite is
// entered; a SectionFilter only decides whether a visited section is
// yielded and never prunes its descendants.
//
// Every walk tracks the ids on the current path and the ids already
// visited. A cycle, a section reached twice or a reference to a missing
// section is yielded once as a *morph.StructuralError and the walk stops.
package traversal
