package acquire

import (
	"context"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"shazoom/internal/errs"
)

// MicSource records a single fixed-duration clip from the default input
// device, writes it to a temporary WAV file, and emits one descriptor
// for it. It is deliberately one-shot: spec.md §1 excludes real-time
// streaming identification from a live microphone feed, so this source
// never loops or re-arms itself — it records once, then behaves exactly
// like any other acquired file. Adapted from
// Prayush09-MusicRecognition/main/recording.go's RecordingWithInfo,
// dropping its retry-until-quality loop (see DESIGN.md).
type MicSource struct {
	Duration   float64 // seconds
	SampleRate int
	OutPath    string // temp file path to write the recording to
}

// Descriptors implements Source.
func (m MicSource) Descriptors(ctx context.Context) (<-chan SongDescriptor, error) {
	out := make(chan SongDescriptor, 1)
	go func() {
		defer close(out)
		path, err := m.record(ctx)
		if err != nil {
			// Acquisition failure: emit a descriptor with no path, per
			// spec.md §6's "∅ indicates acquisition failed" contract.
			select {
			case out <- SongDescriptor{}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case out <- SongDescriptor{Path: path}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

func (m MicSource) record(ctx context.Context) (string, error) {
	if err := portaudio.Initialize(); err != nil {
		return "", fmt.Errorf("%w: portaudio init: %v", errs.ErrAcquisition, err)
	}
	defer portaudio.Terminate()

	sampleRate := m.SampleRate
	if sampleRate == 0 {
		sampleRate = 44100
	}
	numSamples := int(m.Duration * float64(sampleRate))
	buf := make([]int16, numSamples)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(buf), &buf)
	if err != nil {
		return "", fmt.Errorf("%w: open stream: %v", errs.ErrAcquisition, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return "", fmt.Errorf("%w: start stream: %v", errs.ErrAcquisition, err)
	}
	done := make(chan error, 1)
	go func() { done <- stream.Read() }()
	select {
	case <-ctx.Done():
		stream.Stop()
		return "", fmt.Errorf("%w: recording cancelled", errs.ErrCancelled)
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("%w: read stream: %v", errs.ErrAcquisition, err)
		}
	}
	if err := stream.Stop(); err != nil {
		return "", fmt.Errorf("%w: stop stream: %v", errs.ErrAcquisition, err)
	}

	path := m.OutPath
	if path == "" {
		f, err := os.CreateTemp("", "shazoom-mic-*.wav")
		if err != nil {
			return "", fmt.Errorf("%w: temp file: %v", errs.ErrAcquisition, err)
		}
		path = f.Name()
		f.Close()
	}

	if err := writeWAV(path, buf, sampleRate); err != nil {
		return "", fmt.Errorf("%w: write wav: %v", errs.ErrAcquisition, err)
	}
	return path, nil
}

func writeWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
