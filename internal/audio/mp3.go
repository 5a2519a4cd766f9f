// SPDX-License-Identifier: MIT

// Package audio measures, re-encodes and tags the MP3 files produced by the
// TTS back-end. Everything is pure Go: go-mp3 for decoding, shine-mp3 for
// encoding, id3v2 for tagging.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"
	"github.com/hajimehoshi/go-mp3"
)

// Bitrate is the uniform output bitrate in kbit/s. The broadcaster mixes
// queued files back to back; a constant bitrate avoids decoder hiccups at
// file boundaries.
const Bitrate = 192

// pcm decodes data and returns interleaved signed 16-bit stereo samples plus
// the sample rate. go-mp3 always decodes to 16-bit stereo.
func pcm(data []byte) ([]int16, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("decode mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("read pcm: %w", err)
	}
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return samples, dec.SampleRate(), nil
}

// Duration returns the playback length of the MP3 data in seconds.
func Duration(data []byte) (float64, error) {
	samples, rate, err := pcm(data)
	if err != nil {
		return 0, err
	}
	frames := len(samples) / 2 // stereo
	return float64(frames) / float64(rate), nil
}

// DurationFile returns the playback length of the MP3 file at path.
func DurationFile(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return Duration(data)
}

// Reencode decodes data and re-encodes it at the uniform Bitrate. It also
// returns the decoded duration in seconds so callers do not pay for a second
// decode pass.
func Reencode(data []byte) ([]byte, float64, error) {
	samples, rate, err := pcm(data)
	if err != nil {
		return nil, 0, err
	}
	frames := len(samples) / 2
	duration := float64(frames) / float64(rate)

	// shine encodes whole granules of 1152 samples per channel; pad the tail
	// with silence.
	const granule = 1152
	if rem := frames % granule; rem != 0 {
		samples = append(samples, make([]int16, (granule-rem)*2)...)
	}

	enc := shine.NewEncoder(rate, 2)
	setBitrate(enc, Bitrate)

	var out bytes.Buffer
	enc.Write(&out, samples)
	return out.Bytes(), duration, nil
}

// Layer III bitrate tables in kbit/s, indexed by the frame header's bitrate
// index. Which table applies depends on the MPEG version the sample rate
// selects.
var (
	mpeg1Bitrates  = [16]int{-1, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, -1}
	mpeg2Bitrates  = [16]int{-1, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, -1}
	mpeg25Bitrates = [16]int{-1, 8, 16, 24, 32, 40, 48, 56, 64, -1, -1, -1, -1, -1, -1, -1}
)

// setBitrate retargets the encoder after construction. NewEncoder derives
// the bitrate index and the per-frame slot counts from its built-in default,
// so all of them must be recomputed. Sample rates below 32 kHz frame as
// MPEG-2/2.5, which cap the bitrate; the highest supported value wins there.
func setBitrate(enc *shine.Encoder, kbps int) {
	table := mpeg1Bitrates
	switch enc.Mpeg.Version {
	case shine.MPEG_II:
		table = mpeg2Bitrates
	case shine.MPEG_25:
		table = mpeg25Bitrates
	}

	index, best := 0, -1
	for i, rate := range table {
		if rate < 0 || rate > kbps {
			continue
		}
		if rate > best {
			index, best = i, rate
		}
	}
	if best < 0 {
		return
	}

	enc.Mpeg.Bitrate = int64(best)
	enc.Mpeg.BitrateIndex = int64(index)
	avgSlots := (float64(enc.Mpeg.GranulesPerFrame) * shine.GRANULE_SIZE / float64(enc.Wave.SampleRate)) *
		(float64(enc.Mpeg.Bitrate) * 1000 / float64(enc.Mpeg.BitsPerSlot))
	enc.Mpeg.WholeSlotsPerFrame = int64(avgSlots)
	enc.Mpeg.FracSlotsPerFrame = avgSlots - float64(enc.Mpeg.WholeSlotsPerFrame)
	enc.Mpeg.Slot_lag = -enc.Mpeg.FracSlotsPerFrame
	if enc.Mpeg.FracSlotsPerFrame == 0 {
		enc.Mpeg.Padding = 0
	}
}
