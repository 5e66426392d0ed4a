package source

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/skip2/go-qrcode"
)

// EndCard appends one generated slide after the photos of Source: a QR code
// for Content centered on a white canvas.
type EndCard struct {
	Source
	card image.Image
}

func NewEndCard(src Source, content string, canvas image.Point) (*EndCard, error) {
	side := min(canvas.X, canvas.Y) * 2 / 3
	if side < 21 {
		side = 21
	}
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	code := qr.Image(side)

	card := image.NewRGBA(image.Rectangle{Max: canvas})
	draw.Draw(card, card.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	cb := code.Bounds()
	at := image.Pt((canvas.X-cb.Dx())/2, (canvas.Y-cb.Dy())/2)
	draw.Draw(card, cb.Sub(cb.Min).Add(at), code, cb.Min, draw.Src)

	return &EndCard{Source: src, card: card}, nil
}

func (e *EndCard) PageCount() int {
	return e.Source.PageCount() + 1
}

func (e *EndCard) GetPageDimensions(index int) (float64, float64, error) {
	if index == e.Source.PageCount() {
		b := e.card.Bounds()
		return float64(b.Dx()), float64(b.Dy()), nil
	}
	return e.Source.GetPageDimensions(index)
}

func (e *EndCard) Image(index int) image.Image {
	if index == e.Source.PageCount() {
		return e.card
	}
	return e.Source.Image(index)
}
