// Package layout is a small binary struct-layout framework.
//
// An Atom declares one fixed-width scalar, a Struct declares an ordered
// composite of atoms and nested structs. Decoding a Struct never mutates the
// declaration: every call returns a fresh Aggregate, so declarations can be
// shared freely and decoded records can be handed to other goroutines.
package layout
