// Package wav implements the Decoder (C1): turning a container-format
// audio file into integer-16 PCM channels, a sample rate, and the
// file's SHA-1 hash. Format dispatch is adapted from
// Prayush09-MusicRecognition's main/upload.go (LoadWAVFile/LoadMP3File),
// extended with FLAC and a generic fallback decoder, grounded on
// DanielCarmel-media-luna's dependency stack (mewkiz/flac, faiface/beep).
package wav

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/wav"
	goaudiowav "github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"

	"shazoom/internal/errs"
)

// Decode reads path and returns its PCM channels (equal length, one
// slice per audio channel), sample rate, and SHA-1 file hash. 24-bit
// PCM is rejected, per spec.md §4.1 and the original's read_file note.
func Decode(ctx context.Context, path string) (channels [][]int16, sampleRate int, fileHash string, err error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, "", err
	}

	fileHash, err = hashFile(path)
	if err != nil {
		return nil, 0, "", fmt.Errorf("%w: %v", errs.ErrDecode, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		channels, sampleRate, err = decodeWAV(path)
	case ".mp3":
		channels, sampleRate, err = decodeMP3(path)
	case ".flac":
		channels, sampleRate, err = decodeGeneric(path, flacDecode)
	default:
		channels, sampleRate, err = decodeGeneric(path, genericDecode)
	}
	if err != nil {
		return nil, 0, "", fmt.Errorf("%w: %v", errs.ErrDecode, err)
	}
	return channels, sampleRate, fileHash, nil
}

func decodeWAV(path string) ([][]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := goaudiowav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if dec.BitDepth == 24 {
		return nil, 0, fmt.Errorf("24-bit PCM is not supported")
	}

	numChannels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate
	frames := len(buf.Data) / numChannels

	channels := make([][]int16, numChannels)
	for c := range channels {
		channels[c] = make([]int16, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			channels[c][i] = int16(buf.Data[i*numChannels+c])
		}
	}
	return channels, sampleRate, nil
}

func decodeMP3(path string) ([][]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, 0, err
	}

	sampleRate := dec.SampleRate()
	// go-mp3 always decodes to interleaved stereo 16-bit little-endian.
	var left, right []int16
	buf := make([]byte, 4096)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			for i := 0; i+3 < n; i += 4 {
				l := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
				r := int16(uint16(buf[i+2]) | uint16(buf[i+3])<<8)
				left = append(left, l)
				right = append(right, r)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return [][]int16{left, right}, sampleRate, nil
}

// streamDecoder matches the signature shared by beep's format decoders.
type streamDecoder func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

func decodeGeneric(path string, decode streamDecoder) ([][]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	stream, format, err := decode(f)
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	defer stream.Close()

	numChannels := format.NumChannels
	channels := make([][]int16, numChannels)

	buf := make([][2]float64, 512)
	for {
		n, ok := stream.Stream(buf)
		for i := 0; i < n; i++ {
			for c := 0; c < numChannels; c++ {
				sample := buf[i][c%2]
				channels[c] = append(channels[c], floatToInt16(sample))
			}
		}
		if !ok {
			break
		}
	}
	return channels, int(format.SampleRate), nil
}

func genericDecode(f io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	return wav.Decode(f)
}

func flacDecode(f io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	return flac.Decode(f)
}

func floatToInt16(f float64) int16 {
	if f > 1 {
		f = 1
	}
	if f < -1 {
		f = -1
	}
	return int16(f * 32767)
}
