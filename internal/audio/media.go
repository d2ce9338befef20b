package audio

import (
	"path/filepath"
	"slices"
	"strings"
)

// videoExtensions are container formats that require audio extraction.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".flv":  true,
	".wmv":  true,
	".m4v":  true,
}

// audioExtensions are formats accepted directly for conversion.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
	".wma":  true,
	".opus": true,
}

// IsVideoFile reports whether the path has a known video extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsAudioFile reports whether the path has a known audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSupported reports whether the path is a usable media input.
func IsSupported(path string) bool {
	return IsVideoFile(path) || IsAudioFile(path)
}

// SupportedFormats returns a sorted, comma-separated extension list for
// error messages.
func SupportedFormats() string {
	formats := make([]string, 0, len(videoExtensions)+len(audioExtensions))
	for ext := range videoExtensions {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	for ext := range audioExtensions {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}
