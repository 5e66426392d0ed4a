package source

import (
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/slides2video/internal/logging"
)

const DefaultDPI = 150

// PDFSource renders PDF pages with MuPDF. The document handle is not safe
// for concurrent use, so rendering is serialized.
type PDFSource struct {
	mu  sync.Mutex
	doc *fitz.Document
	dpi float64
	log *logging.Logger
}

func NewPDFSource(path string, dpi int) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PDFSource{doc: doc, dpi: float64(dpi), log: logging.Nop()}, nil
}

func (f *PDFSource) WithLogger(log *logging.Logger) *PDFSource {
	f.log = log
	return f
}

func (f *PDFSource) PageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.NumPage()
}

func (f *PDFSource) GetPageDimensions(index int) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (f *PDFSource) Image(index int) image.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= f.doc.NumPage() {
		return nil
	}
	img, err := f.doc.ImageDPI(index, f.dpi)
	if err != nil {
		f.log.Warn().Err(err).Int("page", index).Msg("skipping page")
		return nil
	}
	return img
}

func (f *PDFSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Close()
}
