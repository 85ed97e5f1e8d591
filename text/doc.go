// Package text provides deterministic text normalization and keyword
// overlap extraction for profile matching.
//
// Two preprocessing depths are exposed: Normalize (light mode) prepares
// text for embedding without stopword removal, since embedding models
// handle stopwords themselves; NormalizeKeywords (keyword mode) adds
// stopword and short-token filtering and feeds everything that becomes
// user-visible keyword evidence.
//
// All functions are pure: no I/O, no shared state, same output for the
// same input.
package text
