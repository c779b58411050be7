// Package translate replaces segment text with a translation while leaving
// timing untouched.
//
// Segments are translated independently with bounded concurrency; each
// request fills the slot for its own index so order is preserved without
// shared mutation. A failed or empty reply keeps that segment's original
// text. Missing credentials turn the whole stage into a logged pass-through.
package translate
