// Package text turns chapter markup into the plain text the speech engine
// reads, and splits that text into bounded chunks.
package text
