// Package store persists analysis results in SQLite.
//
// A run groups the Sholl profiles and check reports produced for one
// population with one set of parameters. Morphologies themselves are not
// stored; only their names are recorded with the run. The schema is
// managed with golang-migrate from migrations embedded in the binary.
package store
