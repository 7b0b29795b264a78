// Package html extracts readable text from HTML documents.
//
// Scripts, styles and other non-content elements are dropped, block elements
// become line breaks, list items become "- " lines, tables are rendered as
// pipe rows and <pre> blocks as fenced code so the chunker keeps them whole.
package html
