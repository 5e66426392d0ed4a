// Package source provides the photos of a slideshow: image files, PDF pages
// and generated slides.
package source

import (
	"image"
	"strings"
)

// ImageSource yields the photo at index, or nil when it is missing or cannot
// be decoded. Implementations must be deterministic: the same index may be
// requested more than once.
type ImageSource interface {
	Image(index int) image.Image
}

// Source is an ImageSource that knows its length and owns resources.
type Source interface {
	ImageSource
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	Close() error
}

// Open picks a PDF source for .pdf paths and a file source otherwise.
func Open(path string, dpi int) (Source, error) {
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return NewPDFSource(path, dpi)
	}
	return NewImageSource(path)
}
