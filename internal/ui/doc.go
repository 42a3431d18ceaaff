// Package ui is the terminal surface of the sentinel.
//
// While monitoring it shows a live preview panel with detector activity. When
// the alarm fires the preview is replaced by a stop control; pressing it sends a
// stop command for the local user. Visibility is driven by the pipeline through
// Surface and never blocks it: the view polls.
package ui
