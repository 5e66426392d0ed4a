package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(0, 0, color.RGBA{R: 200, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestImageSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 4, 3)
	writePNG(t, filepath.Join(dir, "a.png"), 8, 6)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewImageSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if got := src.PageCount(); got != 3 {
		t.Fatalf("PageCount = %d, want 3", got)
	}
	// Sorted by name: a.png, b.png, broken.jpg.
	w, h, err := src.GetPageDimensions(0)
	if err != nil || w != 8 || h != 6 {
		t.Errorf("dimensions of first image = %vx%v, %v", w, h, err)
	}
	if img := src.Image(1); img == nil || img.Bounds().Dx() != 4 {
		t.Errorf("second image not decoded: %v", img)
	}
	if img := src.Image(2); img != nil {
		t.Error("broken file should yield no image")
	}
	if img := src.Image(3); img != nil {
		t.Error("out of range index should yield no image")
	}
	if _, _, err := src.GetPageDimensions(-1); err == nil {
		t.Error("expected range error")
	}
}

func TestOpenSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "only.png")
	writePNG(t, path, 2, 2)

	src, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if src.PageCount() != 1 || src.Image(0) == nil {
		t.Errorf("single file source: count %d", src.PageCount())
	}
}

type countingSource struct {
	calls map[int]int
}

func (c *countingSource) Image(index int) image.Image {
	c.calls[index]++
	return image.NewGray(image.Rect(0, 0, index+1, 1))
}

func TestCachedServesLookahead(t *testing.T) {
	inner := &countingSource{calls: map[int]int{}}
	c := NewCached(inner, 2)

	// Feeder pattern: current i, next i+1, then current i+1, next i+2.
	for i := 0; i < 4; i++ {
		if got := c.Image(i).Bounds().Dx(); got != i+1 {
			t.Fatalf("Image(%d) returned width %d", i, got)
		}
		c.Image(i + 1)
	}
	for i := 0; i <= 4; i++ {
		if inner.calls[i] != 1 {
			t.Errorf("index %d decoded %d times, want 1", i, inner.calls[i])
		}
	}
}

type fixedSource struct{ n int }

func (f fixedSource) Image(index int) image.Image {
	if index < 0 || index >= f.n {
		return nil
	}
	return image.NewGray(image.Rect(0, 0, 1, 1))
}
func (f fixedSource) PageCount() int                                  { return f.n }
func (f fixedSource) GetPageDimensions(int) (float64, float64, error) { return 1, 1, nil }
func (f fixedSource) Close() error                                    { return nil }

func TestEndCard(t *testing.T) {
	canvas := image.Pt(320, 180)
	src, err := NewEndCard(fixedSource{n: 2}, "https://example.com", canvas)
	if err != nil {
		t.Fatal(err)
	}

	if got := src.PageCount(); got != 3 {
		t.Fatalf("PageCount = %d, want 3", got)
	}
	card := src.Image(2)
	if card == nil || card.Bounds().Size() != canvas {
		t.Fatalf("end card bounds = %v", card)
	}
	if r, g, b, _ := card.At(2, 2).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Error("end card border should be white")
	}
	if src.Image(0) == nil {
		t.Error("photos before the card should pass through")
	}
	w, h, _ := src.GetPageDimensions(2)
	if w != 320 || h != 180 {
		t.Errorf("card dimensions = %vx%v", w, h)
	}
}
