// ABOUTME: Audio transcoding package
// ABOUTME: Chains decoder, resampler and encoder behind a push/take/flush protocol
// Package transcode converts encoded audio packets from one codec and format
// to another.
//
// A Transcoder chains a decoder, a resampler and an encoder. Packets go in
// with Push, finished packets come out with Take, and Flush drains every
// stage at end of stream. Output packets carry contiguous timestamps in
// microseconds starting at zero.
//
// The protocol is strict: after each Push or Flush the caller takes packets
// until none are left. A Push or Flush while output is pending returns an
// error matching audio.ErrAgain and changes nothing.
//
//	t, err := transcode.New(input, output)
//	for _, pkt := range packets {
//	    if err := t.Push(pkt); err != nil {
//	        return err
//	    }
//	    for out, ok := t.Take(); ok; out, ok = t.Take() {
//	        write(out)
//	    }
//	}
package transcode
