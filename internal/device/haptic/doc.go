// Package haptic drives a vibration motor through a repeating on/off waveform.
package haptic
