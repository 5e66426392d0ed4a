package source

import (
	"image"
	"sync"
)

// Cached remembers the most recently decoded photos. The feeder asks for
// photo i+1 as "next" and then again as "current", so two entries turn the
// second request into a hit.
type Cached struct {
	src  ImageSource
	size int

	mu      sync.Mutex
	entries []cacheEntry
}

type cacheEntry struct {
	index int
	img   image.Image
}

func NewCached(src ImageSource, size int) *Cached {
	if size < 1 {
		size = 1
	}
	return &Cached{src: src, size: size}
}

func (c *Cached) Image(index int) image.Image {
	c.mu.Lock()
	for i, e := range c.entries {
		if e.index == index {
			// move to front
			copy(c.entries[1:i+1], c.entries[:i])
			c.entries[0] = e
			c.mu.Unlock()
			return e.img
		}
	}
	c.mu.Unlock()

	img := c.src.Image(index)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append([]cacheEntry{{index: index, img: img}}, c.entries...)
	if len(c.entries) > c.size {
		c.entries = c.entries[:c.size]
	}
	return img
}
