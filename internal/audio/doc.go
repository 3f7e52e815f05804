// Package audio provides capture feedback sound playback.
// It uses the beep library to play WAV, OGG, and MP3 audio files
// with volume control and per-priority sound configuration.
package audio
