// ABOUTME: Packet writers for transcoded output
// ABOUTME: Raw writer concatenates payloads, framed writer keeps packet boundaries
package app

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
)

// framedMagic starts every framed packet dump.
var framedMagic = [4]byte{'S', 'S', 'T', 'C'}

// Length limits for reading dumps; larger fields mean the dump is corrupt.
const (
	maxFramedHeader = 1 << 20
	maxFramedPacket = 64 << 20
)

var errCorruptDump = errors.New("corrupt dump")

// PacketWriter receives the transcoder's output.
type PacketWriter interface {
	// WriteHeader is called once with the finalized output parameters
	WriteHeader(params audio.CodecParameters) error

	// WritePacket is called for every output packet in order
	WritePacket(pkt audio.Packet) error

	// Flush writes any buffered data
	Flush() error
}

// RawWriter writes the codec header followed by packet payloads. For PCM
// and FLAC output the result is a playable raw or .flac file.
type RawWriter struct {
	w *bufio.Writer
}

// NewRawWriter creates a raw writer
func NewRawWriter(w io.Writer) *RawWriter {
	return &RawWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the codec header, if any
func (r *RawWriter) WriteHeader(params audio.CodecParameters) error {
	_, err := r.w.Write(params.CodecHeader)
	return err
}

// WritePacket writes the payload
func (r *RawWriter) WritePacket(pkt audio.Packet) error {
	_, err := r.w.Write(pkt.Data)
	return err
}

// Flush flushes buffered output
func (r *RawWriter) Flush() error {
	return r.w.Flush()
}

// FramedWriter writes a length-prefixed packet dump:
//
//	"SSTC" codec:u8-len+bytes rate:u32 channels:u16 bitdepth:u16 header:u32-len+bytes
//	then per packet: pts_us:i64 len:u32 data
//
// All integers are big-endian.
type FramedWriter struct {
	w *bufio.Writer
}

// NewFramedWriter creates a framed writer
func NewFramedWriter(w io.Writer) *FramedWriter {
	return &FramedWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the stream description
func (f *FramedWriter) WriteHeader(params audio.CodecParameters) error {
	if len(params.Codec) > 255 {
		return fmt.Errorf("codec name too long: %d bytes", len(params.Codec))
	}
	f.w.Write(framedMagic[:])
	f.w.WriteByte(byte(len(params.Codec)))
	f.w.WriteString(params.Codec)
	binary.Write(f.w, binary.BigEndian, uint32(params.SampleRate))
	binary.Write(f.w, binary.BigEndian, uint16(params.Channels))
	binary.Write(f.w, binary.BigEndian, uint16(params.BitDepth))
	binary.Write(f.w, binary.BigEndian, uint32(len(params.CodecHeader)))
	_, err := f.w.Write(params.CodecHeader)
	return err
}

// WritePacket writes one framed packet
func (f *FramedWriter) WritePacket(pkt audio.Packet) error {
	var hdr [12]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(pkt.PTS))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(pkt.Data)))
	if _, err := f.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := f.w.Write(pkt.Data)
	return err
}

// Flush flushes buffered output
func (f *FramedWriter) Flush() error {
	return f.w.Flush()
}

// FramedReader reads a dump written by FramedWriter.
type FramedReader struct {
	r      *bufio.Reader
	params audio.CodecParameters
}

// NewFramedReader reads and validates the stream description.
func NewFramedReader(r io.Reader) (*FramedReader, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != framedMagic {
		return nil, fmt.Errorf("not a framed packet dump")
	}

	n, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("failed to read codec: %w", err)
	}
	codec := make([]byte, n)
	if _, err := io.ReadFull(br, codec); err != nil {
		return nil, fmt.Errorf("failed to read codec: %w", err)
	}

	var fixed struct {
		SampleRate uint32
		Channels   uint16
		BitDepth   uint16
		HeaderLen  uint32
	}
	if err := binary.Read(br, binary.BigEndian, &fixed); err != nil {
		return nil, fmt.Errorf("failed to read stream description: %w", err)
	}
	if fixed.HeaderLen > maxFramedHeader {
		return nil, fmt.Errorf("%w: codec header of %d bytes", errCorruptDump, fixed.HeaderLen)
	}
	header := make([]byte, fixed.HeaderLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("failed to read codec header: %w", err)
	}

	params := audio.CodecParameters{
		Codec:      string(codec),
		SampleRate: int(fixed.SampleRate),
		Channels:   int(fixed.Channels),
		BitDepth:   int(fixed.BitDepth),
	}
	if len(header) > 0 {
		params.CodecHeader = header
	}

	return &FramedReader{r: br, params: params}, nil
}

// CodecParameters returns the stream description
func (f *FramedReader) CodecParameters() audio.CodecParameters {
	return f.params
}

// ReadPacket returns the next packet in microseconds, or io.EOF.
func (f *FramedReader) ReadPacket() (audio.Packet, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(f.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return audio.Packet{}, fmt.Errorf("truncated packet header: %w", err)
		}
		return audio.Packet{}, err
	}
	pts := int64(binary.BigEndian.Uint64(hdr[0:8]))
	size := binary.BigEndian.Uint32(hdr[8:12])
	if size > maxFramedPacket {
		return audio.Packet{}, fmt.Errorf("%w: packet of %d bytes", errCorruptDump, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(f.r, data); err != nil {
		return audio.Packet{}, fmt.Errorf("truncated packet: %w", err)
	}
	return audio.Packet{
		Data:     data,
		PTS:      pts,
		DTS:      pts,
		TimeBase: audio.Microseconds,
	}, nil
}
