// Package audio plays sounds for toasts: the per-type cue configured in
// [audio.sounds] and the file referenced by audio content.
//
// Supported formats are WAV, OGG Vorbis and MP3, decoded with beep and
// cached in memory after the first play.
package audio
