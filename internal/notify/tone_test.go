package notify

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"
)

func TestWriteToneProducesWAV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTone(&buf, 880, 100*time.Millisecond, 8000); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Fatalf("bad wav header % x", data[:44])
	}
	samples := 800
	if size := binary.LittleEndian.Uint32(data[40:44]); size != uint32(samples*2) {
		t.Fatalf("expected data size %d, got %d", samples*2, size)
	}
	if len(data) != 44+samples*2 {
		t.Fatalf("expected %d bytes, got %d", 44+samples*2, len(data))
	}
	// The fade-in starts at silence.
	if first := int16(binary.LittleEndian.Uint16(data[44:46])); first != 0 {
		t.Fatalf("expected silent first sample, got %d", first)
	}
}

func TestToneBeeperWritesToSink(t *testing.T) {
	var buf bytes.Buffer
	if err := NewToneBeeperWriter(&buf).Beep(context.Background()); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected audio bytes")
	}
}

func TestToneBeeperMissingSink(t *testing.T) {
	b := NewToneBeeper(t.TempDir() + "/no-such-device")
	if err := b.Beep(context.Background()); err == nil {
		t.Fatal("expected an error for a missing sink")
	}
}
