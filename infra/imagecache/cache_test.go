package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type imageServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newImageServer(t *testing.T, body []byte) *imageServer {
	t.Helper()
	s := &imageServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/garbage":
			_, _ = w.Write([]byte("not an image"))
		default:
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func TestWarm_CachesDecodedImage(t *testing.T) {
	srv := newImageServer(t, solidPNG(t, 8, 4, color.NRGBA{R: 255, A: 255}))
	c := New(Options{}, nil)
	ctx := context.Background()

	require.NoError(t, c.Warm(ctx, srv.URL+"/a.png"))
	img, ok := c.Peek(srv.URL + "/a.png")
	require.True(t, ok)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err := c.Image(ctx, srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.hits.Load())
}

func TestWarm_ConcurrentCallsShareDownload(t *testing.T) {
	srv := newImageServer(t, solidPNG(t, 2, 2, color.White))
	c := New(Options{}, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Warm(context.Background(), srv.URL+"/same.png"))
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, srv.hits.Load(), int32(8))
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	srv := newImageServer(t, solidPNG(t, 2, 2, color.White))
	c := New(Options{Capacity: 2}, nil)
	ctx := context.Background()
	url := func(n int) string { return fmt.Sprintf("%s/%d.png", srv.URL, n) }

	require.NoError(t, c.Warm(ctx, url(1)))
	require.NoError(t, c.Warm(ctx, url(2)))
	_, ok := c.Peek(url(1))
	require.True(t, ok)
	require.NoError(t, c.Warm(ctx, url(3)))

	assert.Equal(t, 2, c.Len())
	_, ok = c.Peek(url(2))
	assert.False(t, ok, "2 was least recently used")
	_, ok = c.Peek(url(1))
	assert.True(t, ok)
}

func TestWarm_Failures(t *testing.T) {
	srv := newImageServer(t, solidPNG(t, 64, 64, color.White))
	ctx := context.Background()

	c := New(Options{}, nil)
	assert.ErrorContains(t, c.Warm(ctx, srv.URL+"/missing"), "404")
	assert.ErrorContains(t, c.Warm(ctx, srv.URL+"/garbage"), "decoding")

	small := New(Options{MaxBytes: 10}, nil)
	assert.ErrorContains(t, small.Warm(ctx, srv.URL+"/big.png"), "larger than")
	assert.Zero(t, small.Len())
}

func TestWarm_SendsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write(solidPNG(t, 1, 1, color.Black))
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "commonswipe-test"}, nil)
	require.NoError(t, c.Warm(context.Background(), srv.URL))
	assert.Equal(t, "commonswipe-test", ua)
}

func TestFit_PreservesAspectRatio(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 200, 100))

	got := Fit(src, 40, 40, 1)
	assert.Equal(t, 40, got.Bounds().Dx())
	assert.Equal(t, 20, got.Bounds().Dy())

	zoomedOut := Fit(src, 40, 40, 0.5)
	assert.Equal(t, 20, zoomedOut.Bounds().Dx())

	zoomedIn := Fit(src, 40, 40, 2)
	assert.Equal(t, 40, zoomedIn.Bounds().Dx())
}

func TestRenderANSI_Dimensions(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	out := RenderANSI(src, 12, 6, 1)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, out, "\x1b[38;2;255;255;255m")
	assert.Contains(t, out, "▀")
}
