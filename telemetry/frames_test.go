package telemetry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFrameStream(t *testing.T) {
	var buf bytes.Buffer
	fw, err := NewFrameWriter(&buf, FrameHeader{Width: 3, Height: 2, RunID: "r1"})
	if err != nil {
		t.Fatalf("NewFrameWriter: %v", err)
	}

	dep := []float32{0, 1, 2, 3, 4, 5}
	pre := []float32{0.5, 0, 0, 0, 0, 0.25}
	if err := fw.WriteFrame(10, dep, pre); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	dep[0] = 9
	if err := fw.WriteFrame(20, dep, pre); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if fw.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", fw.Frames())
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	header, frames, err := ReadFrames(&buf)
	if err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if header.Format != FrameFormat || header.Version != FrameVersion {
		t.Errorf("header = %+v, want format %q version %d", header, FrameFormat, FrameVersion)
	}
	if header.Width != 3 || header.Height != 2 || header.RunID != "r1" {
		t.Errorf("header = %+v", header)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Tick != 10 || frames[1].Tick != 20 {
		t.Errorf("ticks = %d, %d, want 10, 20", frames[0].Tick, frames[1].Tick)
	}
	if frames[0].Dep[0] != 0 || frames[1].Dep[0] != 9 {
		t.Errorf("dep[0] = %v, %v, want 0, 9", frames[0].Dep[0], frames[1].Dep[0])
	}
	if frames[0].Dep[5] != 5 || frames[0].Pre[5] != 0.25 {
		t.Errorf("last cell = %v/%v, want 5/0.25", frames[0].Dep[5], frames[0].Pre[5])
	}
}

func TestFrameWriterRejectsWrongSize(t *testing.T) {
	var buf bytes.Buffer
	fw, err := NewFrameWriter(&buf, FrameHeader{Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("NewFrameWriter: %v", err)
	}
	defer fw.Close()

	err = fw.WriteFrame(0, make([]float32, 3), make([]float32, 4))
	if !errors.Is(err, ErrFrameSize) {
		t.Errorf("WriteFrame error = %v, want ErrFrameSize", err)
	}
}

func TestFrameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.zst")
	fw, err := CreateFrameFile(path, FrameHeader{Width: 1, Height: 1})
	if err != nil {
		t.Fatalf("CreateFrameFile: %v", err)
	}
	if err := fw.WriteFrame(1, []float32{7}, []float32{8}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	_, frames, err := ReadFrames(f)
	if err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if len(frames) != 1 || frames[0].Dep[0] != 7 || frames[0].Pre[0] != 8 {
		t.Errorf("frames = %+v", frames)
	}
}
