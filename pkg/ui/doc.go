// Package ui holds terminal helpers shared by the command line: a colored
// line printer, a download progress tracker and desktop notifications.
// The interactive shell itself lives in the tui subpackage.
package ui
