// Package normalisers turns uploaded bytes into plain text.
//
// Each sub-package handles one family of formats (plaintext, markdown,
// html, docx, pdf). The Registry in this package implements the
// driven.Parser port by dispatching on the lower-case file extension to the
// highest priority normaliser that supports it.
package normalisers
