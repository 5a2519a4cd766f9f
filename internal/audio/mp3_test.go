// SPDX-License-Identifier: MIT

package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silenceMP3 encodes n seconds of stereo silence at 44.1 kHz.
func silenceMP3(t *testing.T, seconds int) []byte {
	t.Helper()
	samples := make([]int16, 44100*2*seconds)
	enc := shine.NewEncoder(44100, 2)
	var buf bytes.Buffer
	enc.Write(&buf, samples)
	require.NotZero(t, buf.Len())
	return buf.Bytes()
}

func TestDuration(t *testing.T) {
	data := silenceMP3(t, 2)
	d, err := Duration(data)
	require.NoError(t, err)
	// Granule padding and decoder delay smear the edges slightly.
	assert.InDelta(t, 2.0, d, 0.2)
}

func TestDurationRejectsGarbage(t *testing.T) {
	_, err := Duration([]byte("definitely not an mp3"))
	require.Error(t, err)
}

func TestReencodeRoundTrip(t *testing.T) {
	data := silenceMP3(t, 1)
	out, d, err := Reencode(data)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 0.2)
	require.NotEmpty(t, out)

	// The re-encoded stream must itself decode.
	d2, err := Duration(out)
	require.NoError(t, err)
	assert.InDelta(t, d, d2, 0.2)
}

func TestReencodeTargetsUniformBitrate(t *testing.T) {
	out, _, err := Reencode(silenceMP3(t, 1))
	require.NoError(t, err)
	require.Greater(t, len(out), 4)

	// 44.1 kHz frames as MPEG-1, whose Layer III table puts 192 kbit/s at
	// bitrate index 11. The input was encoded at shine's 128 kbit/s default
	// (index 9), so a pass-through would fail this.
	require.Equal(t, byte(0xFF), out[0])
	assert.Equal(t, byte(11), out[2]>>4)
}

func TestWriteAndReadTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "001_test.mp3")
	require.NoError(t, os.WriteFile(path, silenceMP3(t, 1), 0o644))

	want := Tags{Title: "K", Artist: "AIT Bob", Album: "K"}
	require.NoError(t, WriteTags(path, want))

	got, err := ReadTags(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
