// Package metadata provides best-effort tag extraction from audio files.
package metadata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"
	zlog "github.com/rs/zerolog/log"
)

// Meta is the best-effort result of tag extraction. Fields are always
// populated: when no tag data is available they fall back to the file name
// and "Unknown Artist".
type Meta struct {
	Title    string
	Artist   string
	CoverURL string  // Path of the extracted cover image ("" when none)
	Duration float64 // Duration in seconds (0 when unknown)
}

// Extractor reads tags from audio files. Extraction never returns an error:
// any failure degrades to defaults derived from the file name.
type Extractor struct {
	coverDir string
}

// NewExtractor creates an extractor. Extracted cover images are written into
// coverDir; pass "" to skip cover extraction.
func NewExtractor(coverDir string) *Extractor {
	return &Extractor{coverDir: coverDir}
}

// ExtractFile extracts metadata from the audio file at path.
func (e *Extractor) ExtractFile(path string) Meta {
	meta := defaultMeta(path)
	meta.Duration = probeDuration(path)

	f, err := os.Open(path)
	if err != nil {
		zlog.Debug().Msgf("metadata: cannot open %s: %v", path, err)
		return meta
	}
	defer f.Close()

	tags, err := tag.ReadFrom(f)
	if err != nil {
		zlog.Debug().Msgf("metadata: no readable tags in %s: %v", path, err)
		return meta
	}

	if t := strings.TrimSpace(tags.Title()); t != "" {
		meta.Title = t
	}
	if a := strings.TrimSpace(tags.Artist()); a != "" {
		meta.Artist = a
	}
	if e.coverDir != "" {
		meta.CoverURL = e.saveCover(path, tags.Picture())
	}
	return meta
}

// saveCover writes the embedded cover image next to the library data and
// returns its path, or "" when there is no usable picture.
func (e *Extractor) saveCover(trackPath string, pic *tag.Picture) string {
	if pic == nil || len(pic.Data) == 0 {
		return ""
	}

	ext := pic.Ext
	if ext == "" {
		ext = "jpg"
	}
	base := strings.TrimSuffix(filepath.Base(trackPath), filepath.Ext(trackPath))
	coverPath := filepath.Join(e.coverDir, base+"."+ext)

	if err := os.WriteFile(coverPath, pic.Data, 0644); err != nil {
		zlog.Warn().Msgf("metadata: failed to write cover image %s: %v", coverPath, err)
		return ""
	}
	return coverPath
}

// probeDuration decodes the stream header to compute the track length.
// Only implemented for MP3; other formats report 0 (unknown).
func probeDuration(path string) float64 {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return 0
	}

	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		_ = f.Close()
		return 0
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()).Seconds()
}

// defaultMeta derives fallback metadata from the file name. Names in the
// form "Artist - Title" are split; anything else becomes the title with
// "Unknown Artist".
func defaultMeta(path string) Meta {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	parts := strings.SplitN(name, " - ", 2)
	if len(parts) == 2 && strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != "" {
		return Meta{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(parts[1]),
		}
	}

	return Meta{
		Title:  name,
		Artist: "Unknown Artist",
	}
}
