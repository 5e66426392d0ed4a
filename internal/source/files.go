package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/slides2video/internal/logging"
	"github.com/ivlev/slides2video/internal/system"
)

// FileSource decodes image files on demand.
type FileSource struct {
	paths []string
	log   *logging.Logger
}

// NewImageSource opens a directory of images (sorted by name) or a single
// image file.
func NewImageSource(path string) (*FileSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		return NewFileSource([]string{path}), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && system.HasExtension(entry.Name(), system.ImageExtensions) {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(paths)
	return NewFileSource(paths), nil
}

// NewFileSource uses paths in the given order.
func NewFileSource(paths []string) *FileSource {
	return &FileSource{paths: paths, log: logging.Nop()}
}

// WithLogger reports undecodable files through log.
func (s *FileSource) WithLogger(log *logging.Logger) *FileSource {
	s.log = log
	return s
}

func (s *FileSource) Paths() []string { return s.paths }

func (s *FileSource) PageCount() int {
	return len(s.paths)
}

func (s *FileSource) GetPageDimensions(index int) (float64, float64, error) {
	if index < 0 || index >= len(s.paths) {
		return 0, 0, fmt.Errorf("image %d out of range [0,%d)", index, len(s.paths))
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

func (s *FileSource) Image(index int) image.Image {
	if index < 0 || index >= len(s.paths) {
		return nil
	}
	img, err := decodeFile(s.paths[index])
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.paths[index]).Msg("skipping image")
		return nil
	}
	return img
}

func (s *FileSource) Close() error {
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
