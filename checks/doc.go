// Package checks holds structural and geometric predicates over a
// morphology.
//
// Each check is a pure function returning a CheckResult. Irregular but
// representable biology (multifurcations, back-tracking, overlapping
// points, jumps) is reported as offenders, never as an error. The only
// errors a check returns are structural errors from walking a corrupt tree
// or invalid parameters.
//
// A Runner aggregates named checks into a single Report keyed by name.
package checks
