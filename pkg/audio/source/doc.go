// ABOUTME: Audio packet source package
// ABOUTME: Provides sources that read PCM packets from files and generators
// Package source reads audio from files and turns it into PCM packets ready
// for the transcoder.
//
// Supported inputs: headerless PCM (.pcm, .raw, stdin), MP3 (decoded with
// go-mp3), FLAC (decoded with mewkiz/flac) and a 440Hz test tone.
package source
