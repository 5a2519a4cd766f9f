// SPDX-License-Identifier: MIT

package audio

import (
	"fmt"

	id3v2 "github.com/bogem/id3v2/v2"
)

// Genre written to every generated file.
const Genre = "Speech"

// Tags is the ID3v2 metadata of a generated audio file.
type Tags struct {
	Title  string // join key
	Artist string // "AIT <character>" or "Translation"
	Album  string // join key
}

// WriteTags stamps the ID3v2 metadata onto the MP3 file at path.
func WriteTags(path string, t Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer func() { _ = tag.Close() }()

	tag.SetTitle(t.Title)
	tag.SetArtist(t.Artist)
	tag.SetAlbum(t.Album)
	tag.SetGenre(Genre)
	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}

// ReadTags reads the ID3v2 metadata of the MP3 file at path.
func ReadTags(path string) (Tags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Tags{}, fmt.Errorf("open id3 tag: %w", err)
	}
	defer func() { _ = tag.Close() }()
	return Tags{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
	}, nil
}
