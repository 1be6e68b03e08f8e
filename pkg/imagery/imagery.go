// Package imagery fetches satellite imagery of a site and draws the
// indicative panel layout over it.
package imagery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/powerroof/powerroof/pkg/common"
	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/metrics"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/staticmap"
	DefaultZoom    = 19
	DefaultSize    = "800x500"
	DefaultTimeout = 15 * time.Second

	// APIKeyEnv is consulted when no key was given explicitly.
	APIKeyEnv = "GOOGLE_MAPS_API_KEY"

	maxImageBytes = 10 << 20
)

// Result holds the fetched satellite image and the same image with the panel
// layout drawn on it, both PNG encoded.
type Result struct {
	Satellite []byte
	Overlay   []byte
	Width     int
	Height    int
}

// Fetcher retrieves satellite tiles from a static maps endpoint.
type Fetcher struct {
	apiKey  string
	baseURL string
	zoom    int
	size    string
	client  *http.Client
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithBaseURL points the fetcher at another endpoint.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) { f.baseURL = u }
}

// WithClient replaces the http client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithZoom sets the map zoom level.
func WithZoom(z int) Option {
	return func(f *Fetcher) { f.zoom = z }
}

// NewFetcher returns a Fetcher using apiKey, falling back to the
// GOOGLE_MAPS_API_KEY environment variable when apiKey is empty.
func NewFetcher(apiKey string, opts ...Option) *Fetcher {
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnv)
	}
	f := &Fetcher{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		zoom:    DefaultZoom,
		size:    DefaultSize,
		client:  common.HTTPClient(DefaultTimeout),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Configured registers the imagery flags and returns a Fetcher that is ready
// once lflag.Configure has run.
func Configured() *Fetcher {
	apiKey := lflag.String("maps-api-key", "", "Static maps API key (defaults to $"+APIKeyEnv+")")
	baseURL := lflag.String("maps-base-url", DefaultBaseURL, "Static maps endpoint")
	zoom := lflag.String("maps-zoom", strconv.Itoa(DefaultZoom), "Static maps zoom level")

	f := &Fetcher{}
	lflag.Do(func() {
		z, err := strconv.Atoi(*zoom)
		if err != nil {
			panic(fmt.Sprintf("invalid maps-zoom %q: %v", *zoom, err))
		}
		*f = *NewFetcher(*apiKey, WithBaseURL(*baseURL), WithZoom(z))
	})
	return f
}

// Enabled reports whether the fetcher has a credential.
func (f *Fetcher) Enabled() bool {
	return f != nil && f.apiKey != ""
}

func (f *Fetcher) url(lat, lng float64) string {
	q := url.Values{}
	q.Set("center", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("zoom", strconv.Itoa(f.zoom))
	q.Set("size", f.size)
	q.Set("maptype", "satellite")
	q.Set("key", f.apiKey)
	return f.baseURL + "?" + q.Encode()
}

// Fetch downloads the satellite image centred on lat/lng and draws the panel
// layout for sizeKWp over it. A nil Result and nil error are returned when no
// credential is configured.
func (f *Fetcher) Fetch(ctx context.Context, lat, lng, sizeKWp float64) (*Result, error) {
	if !f.Enabled() {
		log.Ctx(ctx).InfoContext(ctx, "no maps api key configured, skipping satellite imagery")
		metrics.IncImagery(metrics.ImagerySkipped)
		return nil, nil
	}

	res, err := f.fetch(ctx, lat, lng, sizeKWp)
	if err != nil {
		metrics.IncImagery(metrics.ImageryPlaceholder)
		return nil, err
	}
	metrics.IncImagery(metrics.ImageryReal)
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched satellite image",
		slog.Int("width", res.Width),
		slog.Int("height", res.Height),
	)
	return res, nil
}

func (f *Fetcher) fetch(ctx context.Context, lat, lng, sizeKWp float64) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url(lat, lng), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create imagery request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch satellite image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("satellite image request failed: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read satellite image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode satellite image: %w", err)
	}

	sat, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	over, err := encodePNG(Overlay(img, sizeKWp))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Result{
		Satellite: sat,
		Overlay:   over,
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

// ErrNoImage is returned by encodePNG for an empty image.
var ErrNoImage = errors.New("empty image")

func encodePNG(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
