// Package display derives render-ready messages from stored agent-domain
// records. Derivation is a pure function of the stored sequence plus an
// optional caller-supplied parser, so it can be recomputed on every store
// notification without held state.
package display
