package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WAV container plumbing for 16-bit PCM. Decoding accepts mono or stereo
// (stereo is downmixed); encoding always writes mono.

const (
	wavFormatPCM     = 1
	wavHeaderSize    = 44
	bytesPerSample16 = 2
)

// EncodeWAV writes the clip as a 16-bit mono PCM WAV stream.
func EncodeWAV(w io.Writer, clip Clip) error {
	if clip.SampleRate <= 0 {
		return errors.New("encode wav: sample rate must be positive")
	}
	dataLen := len(clip.Samples) * bytesPerSample16
	byteRate := clip.SampleRate * bytesPerSample16

	var header [wavHeaderSize]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], uint32(clip.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], bytesPerSample16)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("encode wav: write header: %w", err)
	}

	body := make([]byte, dataLen)
	for i, s := range clip.Samples {
		binary.LittleEndian.PutUint16(body[i*2:], uint16(s))
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("encode wav: write samples: %w", err)
	}
	return nil
}

// DecodeWAV parses a 16-bit PCM WAV stream into a mono clip. Stereo input is
// averaged down to mono. Chunks other than fmt and data are skipped.
func DecodeWAV(r io.Reader) (Clip, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Clip{}, fmt.Errorf("decode wav: read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Clip{}, errors.New("decode wav: not a RIFF/WAVE stream")
	}

	var (
		sampleRate int
		channels   int
		haveFmt    bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Clip{}, errors.New("decode wav: missing data chunk")
			}
			return Clip{}, fmt.Errorf("decode wav: read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Clip{}, fmt.Errorf("decode wav: read fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return Clip{}, errors.New("decode wav: fmt chunk too short")
			}
			if format := binary.LittleEndian.Uint16(body[0:2]); format != wavFormatPCM {
				return Clip{}, fmt.Errorf("decode wav: unsupported format %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			if bits := binary.LittleEndian.Uint16(body[14:16]); bits != 16 {
				return Clip{}, fmt.Errorf("decode wav: unsupported bit depth %d", bits)
			}
			if channels != 1 && channels != 2 {
				return Clip{}, fmt.Errorf("decode wav: unsupported channel count %d", channels)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Clip{}, errors.New("decode wav: data chunk before fmt")
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Clip{}, fmt.Errorf("decode wav: read data chunk: %w", err)
			}
			return decodeSamples(body, sampleRate, channels)
		default:
			// Skip ancillary chunks (LIST, fact, cue, ...). Chunk bodies are
			// word aligned.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Clip{}, fmt.Errorf("decode wav: skip %s chunk: %w", id, err)
			}
		}
	}
}

func decodeSamples(body []byte, sampleRate, channels int) (Clip, error) {
	frameSize := bytesPerSample16 * channels
	if len(body)%frameSize != 0 {
		return Clip{}, fmt.Errorf("decode wav: data length %d not aligned to %d-byte frames", len(body), frameSize)
	}
	frames := len(body) / frameSize
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		offset := i * frameSize
		left := int16(binary.LittleEndian.Uint16(body[offset:]))
		if channels == 1 {
			samples[i] = left
			continue
		}
		right := int16(binary.LittleEndian.Uint16(body[offset+2:]))
		samples[i] = int16((int32(left) + int32(right)) / 2)
	}
	return Clip{SampleRate: sampleRate, Samples: samples}, nil
}

// WriteWAVFile encodes the clip to a file path, creating or truncating it.
func WriteWAVFile(path string, clip Clip) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	if err := EncodeWAV(file, clip); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	return nil
}

// ReadWAVFile decodes a WAV file into a mono clip.
func ReadWAVFile(path string) (Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("read wav %s: %w", path, err)
	}
	defer file.Close()
	return DecodeWAV(file)
}
