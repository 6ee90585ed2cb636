// Package normalisers provides implementations of the Normaliser interface
// for the document formats docrisk accepts. Each normaliser extracts plain
// text from a specific MIME type.
//
// Normalisers are collected in a Registry, which selects the
// highest-priority normaliser for a document's MIME type.
package normalisers
