// Package imagecache downloads and decodes images ahead of display and keeps
// the most recent ones in memory.
package imagecache

import (
	"bytes"
	"container/list"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/CrestNiraj12/commonswipe/infra/logging"
)

const (
	DefaultCapacity = 16
	DefaultMaxBytes = 4 * 1024 * 1024
)

// Options configures a Cache. Zero values pick defaults.
type Options struct {
	Capacity   int
	MaxBytes   int64
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type entry struct {
	url string
	img image.Image
}

// Cache is a bounded LRU of decoded images. It implements app.Warmer.
// Concurrent requests for the same URL share one download.
type Cache struct {
	http      *http.Client
	userAgent string
	maxBytes  int64
	capacity  int
	group     singleflight.Group
	log       *log.Logger

	mu    sync.Mutex
	order *list.List // front is most recent
	byURL map[string]*list.Element
}

// New creates an empty cache.
func New(opts Options, logger *log.Logger) *Cache {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{
		http:      hc,
		userAgent: strings.TrimSpace(opts.UserAgent),
		maxBytes:  maxBytes,
		capacity:  capacity,
		log:       logging.OrDiscard(logger).WithPrefix("images"),
		order:     list.New(),
		byURL:     make(map[string]*list.Element),
	}
}

// Warm makes sure url is downloaded and decoded.
func (c *Cache) Warm(ctx context.Context, url string) error {
	_, err := c.Image(ctx, url)
	return err
}

// Image returns the decoded image for url, downloading it if needed.
func (c *Cache) Image(ctx context.Context, url string) (image.Image, error) {
	if img, ok := c.Peek(url); ok {
		return img, nil
	}
	v, err, _ := c.group.Do(url, func() (any, error) {
		if img, ok := c.Peek(url); ok {
			return img, nil
		}
		img, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		c.put(url, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Peek returns a cached image without downloading.
func (c *Cache) Peek(url string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byURL[url]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).img, true
}

// Len is the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) put(url string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byURL[url]; ok {
		el.Value.(*entry).img = img
		c.order.MoveToFront(el)
		return
	}
	c.byURL[url] = c.order.PushFront(&entry{url: url, img: img})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byURL, oldest.Value.(*entry).url)
	}
}

func (c *Cache) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image status %d", resp.StatusCode)
	}

	// One byte over the limit tells a truncated read apart from an exact fit.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", c.maxBytes)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	c.log.Debug("image cached", "url", url, "format", format, "bytes", len(data))
	return img, nil
}
