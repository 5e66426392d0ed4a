package system

import (
	"image"
	"sync"
)

// BufferPool переиспользует canvas-буферы *image.RGBA между кадрами,
// чтобы не нагружать GC. Буферы группируются по размеру.
type BufferPool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

func NewBufferPool() *BufferPool {
	return &BufferPool{pools: make(map[image.Point]*sync.Pool)}
}

// Get возвращает буфер размера size. Содержимое не очищается.
func (p *BufferPool) Get(size image.Point) *image.RGBA {
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[size]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(image.Rectangle{Max: size})
				},
			}
			p.pools[size] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

// Put возвращает буфер в пул. Буферы неизвестного размера отбрасываются.
func (p *BufferPool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect.Size()]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
