// Package audio plays the alarm sound.
//
// Player loops a sound file through an external command-line player, picking one
// that exists on the host. Bell is the fallback ring path: it cannot fail to start
// and keeps ringing the terminal bell until stopped.
package audio
