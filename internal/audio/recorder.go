package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
	frameDur   = 20 * time.Millisecond

	calibration = 500 * time.Millisecond
	trailing    = 600 * time.Millisecond

	// RMS floor and ambient multiplier for the speech threshold.
	minThreshold = 0.01
	ambientRatio = 3.0
)

var ErrTimeout = errors.New("timed out waiting for speech")

// Recorder captures phrases from the default input device. One capture
// runs at a time.
type Recorder struct {
	mu sync.Mutex
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// CheckInput checks that a usable input device exists.
func (r *Recorder) CheckInput() error {
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("default input device: %w", err)
	}
	if dev == nil || dev.MaxInputChannels < 1 {
		return errors.New("default input device has no input channels")
	}
	return nil
}

// Capture calibrates against ambient noise, waits up to startTimeout for
// speech and records until trailing silence or phraseLimit.
func (r *Recorder) Capture(ctx context.Context, startTimeout, phraseLimit time.Duration) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	read := func() (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := stream.Read(); err != nil {
			return 0, fmt.Errorf("read: %w", err)
		}
		return frameRMS(buf), nil
	}

	var ambient float64
	calFrames := int(calibration / frameDur)
	for i := 0; i < calFrames; i++ {
		rms, err := read()
		if err != nil {
			return nil, err
		}
		ambient += rms
	}
	threshold := math.Max(minThreshold, ambient/float64(calFrames)*ambientRatio)

	startFrames := int(startTimeout / frameDur)
	maxFrames := int(phraseLimit / frameDur)
	silenceFrames := int(trailing / frameDur)

	out := make([]float32, 0, SampleRate*3)

	speaking := false
	for i := 0; i < startFrames; i++ {
		rms, err := read()
		if err != nil {
			return nil, err
		}
		if rms > threshold {
			speaking = true
			out = append(out, buf...)
			break
		}
	}
	if !speaking {
		return nil, ErrTimeout
	}

	silent := 0
	for i := 1; i < maxFrames; i++ {
		rms, err := read()
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)

		if rms > threshold {
			silent = 0
			continue
		}
		silent++
		if silent >= silenceFrames {
			break
		}
	}

	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
