// Package transform rewrites the coordinates of a whole morphology.
//
// Every transform touches every section point and every soma point; there
// is no filtered variant because a partial transform would tear the tree
// apart. Radii are only changed by Scale and Uniform when asked to.
//
// Two styles are provided and each function states which one it uses:
//
//   - in place: Apply, Rotate, Translate, Scale, Uniform, Linear and
//     Pipeline.Run mutate the morphology and return it for chaining.
//   - pure: Applied, Rotated, Translated, Scaled and Pipeline.Applied
//     transform a deep copy and leave the input untouched.
//
// Coordinates travel as N×3 gonum matrices, one point per row.
package transform
