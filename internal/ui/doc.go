// Package ui holds the small pieces of styled output used by the
// non-dashboard commands: a line spinner for one-shot network checks and the
// status symbols and colors it renders with.
//
// The dashboard itself has its own styles in the monitor package; this
// package only writes plain lines to an io.Writer, so its output stays
// readable when redirected.
package ui
