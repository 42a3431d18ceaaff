// Package images replays the image files of a directory as a frame source.
//
// Files are read in lexical order. PNG, JPEG and GIF are decoded; any other file
// is skipped. The sequence either ends with ErrExhausted or starts over when
// looping is enabled.
package images
