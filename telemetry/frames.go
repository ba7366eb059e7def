package telemetry

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Frame stream identification.
const (
	FrameFormat  = "slime-frames"
	FrameVersion = 1
)

// ErrFrameSize is returned when channel data does not match the header size.
var ErrFrameSize = errors.New("frame size mismatch")

// FrameHeader is the JSON line at the start of a frame stream.
type FrameHeader struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	RunID   string `json:"run_id,omitempty"`
}

// Frame is one dumped field state.
type Frame struct {
	Tick          int64
	Width, Height int
	Dep, Pre      []float32
}

// FrameWriter writes field dumps to a zstd stream. After the header line,
// each frame is tick (int64), width and height (uint32), then the
// deposition and pre-pattern channels, all little-endian.
type FrameWriter struct {
	f      *os.File // owned file, nil when writing to a caller's writer
	enc    *zstd.Encoder
	w      *bufio.Writer
	header FrameHeader
	frames int
}

// NewFrameWriter starts a frame stream on dst.
func NewFrameWriter(dst io.Writer, h FrameHeader) (*FrameWriter, error) {
	h.Format = FrameFormat
	h.Version = FrameVersion

	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	fw := &FrameWriter{
		enc:    enc,
		w:      bufio.NewWriterSize(enc, 128*1024),
		header: h,
	}

	line, err := json.Marshal(h)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("encoding frame header: %w", err)
	}
	line = append(line, '\n')
	if _, err := fw.w.Write(line); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("writing frame header: %w", err)
	}
	return fw, nil
}

// CreateFrameFile creates path and starts a frame stream in it.
func CreateFrameFile(path string, h FrameHeader) (*FrameWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating frame file: %w", err)
	}
	fw, err := NewFrameWriter(f, h)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	fw.f = f
	return fw, nil
}

// WriteFrame appends one frame. Both channels must hold Width×Height values.
func (fw *FrameWriter) WriteFrame(tick int64, dep, pre []float32) error {
	n := fw.header.Width * fw.header.Height
	if len(dep) != n || len(pre) != n {
		return fmt.Errorf("frame at tick %d has %d/%d values, want %d: %w", tick, len(dep), len(pre), n, ErrFrameSize)
	}

	head := struct {
		Tick int64
		W, H uint32
	}{tick, uint32(fw.header.Width), uint32(fw.header.Height)}
	if err := binary.Write(fw.w, binary.LittleEndian, head); err != nil {
		return fmt.Errorf("writing frame %d: %w", tick, err)
	}
	if err := binary.Write(fw.w, binary.LittleEndian, dep); err != nil {
		return fmt.Errorf("writing frame %d: %w", tick, err)
	}
	if err := binary.Write(fw.w, binary.LittleEndian, pre); err != nil {
		return fmt.Errorf("writing frame %d: %w", tick, err)
	}
	fw.frames++
	return nil
}

// Frames returns the number of frames written.
func (fw *FrameWriter) Frames() int { return fw.frames }

// Close flushes the stream and closes the owned file, if any.
func (fw *FrameWriter) Close() error {
	var firstErr error
	if err := fw.w.Flush(); err != nil {
		firstErr = err
	}
	if err := fw.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if fw.f != nil {
		if err := fw.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadFrames decodes a whole frame stream.
func ReadFrames(r io.Reader) (FrameHeader, []Frame, error) {
	var header FrameHeader

	dec, err := zstd.NewReader(r)
	if err != nil {
		return header, nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return header, nil, fmt.Errorf("reading frame header: %w", err)
	}
	if err := json.Unmarshal(line, &header); err != nil {
		return header, nil, fmt.Errorf("decoding frame header: %w", err)
	}
	if header.Format != FrameFormat {
		return header, nil, fmt.Errorf("unknown frame format %q", header.Format)
	}

	var frames []Frame
	for {
		var head struct {
			Tick int64
			W, H uint32
		}
		if err := binary.Read(br, binary.LittleEndian, &head); err != nil {
			if errors.Is(err, io.EOF) {
				return header, frames, nil
			}
			return header, frames, fmt.Errorf("reading frame %d: %w", len(frames), err)
		}

		n := int(head.W) * int(head.H)
		if n != header.Width*header.Height {
			return header, frames, fmt.Errorf("frame at tick %d is %dx%d: %w", head.Tick, head.W, head.H, ErrFrameSize)
		}
		fr := Frame{
			Tick:   head.Tick,
			Width:  int(head.W),
			Height: int(head.H),
			Dep:    make([]float32, n),
			Pre:    make([]float32, n),
		}
		if err := binary.Read(br, binary.LittleEndian, fr.Dep); err != nil {
			return header, frames, fmt.Errorf("reading frame %d: %w", len(frames), err)
		}
		if err := binary.Read(br, binary.LittleEndian, fr.Pre); err != nil {
			return header, frames, fmt.Errorf("reading frame %d: %w", len(frames), err)
		}
		frames = append(frames, fr)
	}
}
