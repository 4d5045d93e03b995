// Package upload turns a user file into asset content: images become data
// URIs and text files become UTF-8 content.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"
)

// DefaultMaxBytes is the upload size limit when none is configured.
const DefaultMaxBytes = 10 << 20

var (
	// ErrUnsupportedType is returned for files that are neither images nor text.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned for files over the size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrInvalidText is returned for text files that are not valid UTF-8.
	ErrInvalidText = errors.New("text file is not valid UTF-8")
	// ErrEmpty is returned for empty files.
	ErrEmpty = errors.New("file is empty")
)

// File is a decoded upload. URL is set for images and Content for text.
type File struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	URL       string `json:"url,omitempty"`
	Content   string `json:"content,omitempty"`
}

// IsImage reports whether the upload decoded to an image.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MediaType, "image/")
}

// UnsupportedError names the rejected media type.
type UnsupportedError struct {
	MediaType string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("Unsupported file type: %s. Please upload an image or text file.", e.MediaType)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedType }

// Decoder validates and decodes uploads.
type Decoder struct {
	MaxBytes int64
}

// NewDecoder creates a decoder with the given size limit. Zero uses DefaultMaxBytes.
func NewDecoder(maxBytes int64) *Decoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Decoder{MaxBytes: maxBytes}
}

// Decode converts data into a File. declaredType is the client's content
// type; when it is empty or generic the type is sniffed from data.
func (d *Decoder) Decode(name, declaredType string, data []byte) (File, error) {
	if len(data) == 0 {
		return File{}, ErrEmpty
	}
	if int64(len(data)) > d.MaxBytes {
		return File{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), d.MaxBytes)
	}

	mediaType := baseType(declaredType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = baseType(mimetype.Detect(data).String())
	}

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return File{
			Name:      name,
			MediaType: mediaType,
			URL:       dataurl.New(data, mediaType).String(),
		}, nil
	case strings.HasPrefix(mediaType, "text/"):
		if !utf8.Valid(data) {
			return File{}, ErrInvalidText
		}
		return File{
			Name:      name,
			MediaType: mediaType,
			Content:   string(data),
		}, nil
	default:
		return File{}, &UnsupportedError{MediaType: mediaType}
	}
}

// baseType strips parameters such as charset from a content type.
func baseType(contentType string) string {
	if contentType == "" {
		return ""
	}
	t, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return t
}
