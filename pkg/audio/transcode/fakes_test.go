// ABOUTME: Scripted engine fakes for transcoder tests
// ABOUTME: Record what each stage received and emit queued outputs on demand
package transcode

import (
	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// fakeDecoder emits the frames scripted for each pushed packet, and the
// flush frames when flushed.
type fakeDecoder struct {
	script      [][]audio.Frame
	flushFrames []audio.Frame
	pushErr     error

	pushed  []audio.Packet
	queue   []audio.Frame
	flushes int
	closed  bool
}

func (d *fakeDecoder) Push(pkt audio.Packet) error {
	if d.pushErr != nil {
		return d.pushErr
	}
	if n := len(d.pushed); n < len(d.script) {
		d.queue = append(d.queue, d.script[n]...)
	}
	d.pushed = append(d.pushed, pkt)
	return nil
}

func (d *fakeDecoder) Take() (audio.Frame, bool, error) {
	if len(d.queue) == 0 {
		return audio.Frame{}, false, nil
	}
	f := d.queue[0]
	d.queue = d.queue[1:]
	return f, true, nil
}

func (d *fakeDecoder) Flush() error {
	if d.flushes == 0 {
		d.queue = append(d.queue, d.flushFrames...)
	}
	d.flushes++
	return nil
}

func (d *fakeDecoder) Close() error {
	d.closed = true
	return nil
}

// fakeResampler passes frames straight through.
type fakeResampler struct {
	pushed  []audio.Frame
	queue   []audio.Frame
	flushes int
}

func (r *fakeResampler) Push(frame audio.Frame) error {
	r.pushed = append(r.pushed, frame)
	r.queue = append(r.queue, frame)
	return nil
}

func (r *fakeResampler) Take() (audio.Frame, bool, error) {
	if len(r.queue) == 0 {
		return audio.Frame{}, false, nil
	}
	f := r.queue[0]
	r.queue = r.queue[1:]
	return f, true, nil
}

func (r *fakeResampler) Flush() error {
	r.flushes++
	return nil
}

// fakeEncoder turns each frame into one packet and adds tailPackets extra
// packets on the first flush.
type fakeEncoder struct {
	rate        int
	frameSize   int
	tailPackets int
	pushErr     error

	pushed  []audio.Frame
	queue   []audio.Packet
	nextPTS int64
	flushes int
	closed  bool
}

func (e *fakeEncoder) Push(frame audio.Frame) error {
	if e.pushErr != nil {
		return e.pushErr
	}
	e.pushed = append(e.pushed, frame)
	e.queue = append(e.queue, audio.Packet{
		Data:        []byte{byte(len(e.pushed))},
		PTS:         frame.PTS,
		DTS:         frame.PTS,
		StreamIndex: 3,
		TimeBase:    audio.Rational{Num: 1, Den: e.rate},
	})
	e.nextPTS = frame.PTS + int64(frame.NumSamples())
	return nil
}

func (e *fakeEncoder) Take() (audio.Packet, bool, error) {
	if len(e.queue) == 0 {
		return audio.Packet{}, false, nil
	}
	p := e.queue[0]
	e.queue = e.queue[1:]
	return p, true, nil
}

func (e *fakeEncoder) Flush() error {
	if e.flushes == 0 {
		for i := 0; i < e.tailPackets; i++ {
			e.queue = append(e.queue, audio.Packet{
				Data:     []byte{0},
				PTS:      e.nextPTS,
				DTS:      e.nextPTS,
				TimeBase: audio.Rational{Num: 1, Den: e.rate},
			})
			e.nextPTS += int64(e.frameSize)
		}
	}
	e.flushes++
	return nil
}

func (e *fakeEncoder) SamplesPerFrame() int {
	return e.frameSize
}

func (e *fakeEncoder) CodecParameters() audio.CodecParameters {
	return audio.CodecParameters{Codec: "fake", SampleRate: e.rate, Channels: 2, BitDepth: 16}
}

func (e *fakeEncoder) Close() error {
	e.closed = true
	return nil
}

func stereoFrame(pts int64, n int) audio.Frame {
	return audio.Frame{
		Samples:    make([]int32, n*2),
		PTS:        pts,
		SampleRate: 48000,
		Channels:   2,
	}
}
