// Package tui implements the interactive shell: a single screen with a URL
// input, a loading indicator, the classified media of the last lookup and
// the progress of its download.
//
// All displayed data lives in State and changes only through its On*
// transitions. Each submission carries a token; results for anything but
// the latest submission are dropped, so the last URL submitted always wins.
// A failed lookup shows a generic error and clears the previous media.
package tui
