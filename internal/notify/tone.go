package notify

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

const (
	beepFrequency  = 880.0
	beepDuration   = 200 * time.Millisecond
	beepSampleRate = 22050
	beepGain       = 0.3
)

// ToneBeeper synthesizes a short sine beep and writes it as WAV into an
// audio sink (a FIFO read by an audio player, a sound device file).
type ToneBeeper struct {
	open func() (io.WriteCloser, error)
}

// NewToneBeeper writes each beep to the file at path
func NewToneBeeper(path string) *ToneBeeper {
	return &ToneBeeper{open: func() (io.WriteCloser, error) {
		return os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	}}
}

// NewToneBeeperWriter writes each beep to sink (tests, in-process players)
func NewToneBeeperWriter(sink io.Writer) *ToneBeeper {
	return &ToneBeeper{open: func() (io.WriteCloser, error) {
		return nopCloser{sink}, nil
	}}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (b *ToneBeeper) Beep(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w, err := b.open()
	if err != nil {
		return fmt.Errorf("open audio sink: %w", err)
	}
	defer w.Close()
	return WriteTone(w, beepFrequency, beepDuration, beepSampleRate)
}

// WriteTone writes a mono 16-bit PCM WAV sine tone. A 5ms fade at each end
// avoids clicks.
func WriteTone(w io.Writer, frequency float64, d time.Duration, sampleRate int) error {
	samples := int(float64(sampleRate) * d.Seconds())
	dataSize := uint32(samples * 2)

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),             // fmt chunk size
		uint16(1),              // PCM
		uint16(1),              // mono
		uint32(sampleRate),     // sample rate
		uint32(sampleRate * 2), // byte rate
		uint16(2),              // block align
		uint16(16),             // bits per sample
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, field := range header {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return fmt.Errorf("write wav header: %w", err)
		}
	}

	fade := sampleRate / 200
	pcm := make([]int16, samples)
	for i := range pcm {
		env := 1.0
		if fade > 0 {
			if i < fade {
				env = float64(i) / float64(fade)
			} else if samples-i < fade {
				env = float64(samples-i) / float64(fade)
			}
		}
		v := math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate)) * beepGain * env
		pcm[i] = int16(v * math.MaxInt16)
	}
	if err := binary.Write(w, binary.LittleEndian, pcm); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	return nil
}
