// Package audio handles the RIFF/WAVE framing around the 16 kHz mono
// 16-bit PCM used by the speech function.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16

	// HeaderSize is the size of the canonical header written by WAVHeader.
	HeaderSize = 44

	formatPCM = 1
)

var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// Format is the content of a WAVE fmt chunk.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// IsSpeechPCM reports whether f is the 16 kHz mono signed 16-bit PCM the
// speech function expects.
func (f Format) IsSpeechPCM() bool {
	return f.AudioFormat == formatPCM &&
		f.Channels == Channels &&
		f.SampleRate == SampleRate &&
		f.BitsPerSample == BitsPerSample
}

// WAVHeader returns a canonical 44-byte header for dataLen bytes of speech PCM.
func WAVHeader(dataLen int) []byte {
	const blockAlign = Channels * BitsPerSample / 8

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(formatPCM))
	binary.Write(buf, binary.LittleEndian, uint16(Channels))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate*blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(BitsPerSample))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	return buf.Bytes()
}

// SplitWAV walks the RIFF chunks of a WAVE file and returns its format and
// the payload of the data chunk, skipping LIST and other metadata chunks.
func SplitWAV(data []byte) (Format, []byte, error) {
	var f Format
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return f, nil, ErrNotWAV
	}

	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return f, nil, fmt.Errorf("truncated fmt chunk")
			}
			f.AudioFormat = binary.LittleEndian.Uint16(data[body:])
			f.Channels = binary.LittleEndian.Uint16(data[body+2:])
			f.SampleRate = binary.LittleEndian.Uint32(data[body+4:])
			f.BitsPerSample = binary.LittleEndian.Uint16(data[body+14:])
			haveFmt = true
		case "data":
			if !haveFmt {
				return f, nil, fmt.Errorf("data chunk before fmt chunk")
			}
			end := body + size
			// Streamed writers may leave the size unset or too large.
			if end > len(data) || size == 0 {
				end = len(data)
			}
			return f, data[body:end], nil
		}

		// Chunks are padded to an even size.
		pos = body + size + size%2
	}

	return f, nil, fmt.Errorf("no data chunk")
}
