// Package xmlstream provides a streaming XML event reader built on xmltext.
// It turns lexical tokens into structural events with string views whose
// lifetime ends at the next call to Next.
package xmlstream
