// Package splitter holds the two field-splitting heuristics: one free-text
// name into first/middle/last, and one free-text address into
// city/state/country/postal code.
//
// Both are pure, never fail, and always return their full fixed-arity tuple;
// fields that cannot be derived are empty strings. The heuristics are
// deliberately simple and lossy for multi-word city, state and country names.
package splitter
