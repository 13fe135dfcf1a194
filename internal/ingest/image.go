package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"

	"github.com/nfnt/resize"

	"github.com/dukerupert/larder/internal/apperror"
)

const (
	// MaxImageDimension bounds the longer side of an image sent to a model.
	MaxImageDimension = 1568
	// MaxImageBytes bounds uploaded and downloaded images.
	MaxImageBytes = 10 << 20

	jpegQuality = 85
)

// Prepare validates an encoded image and downscales it when either side
// exceeds maxDim. Downscaled images are re-encoded as JPEG; smaller ones
// are passed through untouched.
func Prepare(data []byte, maxDim uint) (*Image, error) {
	if len(data) == 0 {
		return nil, apperror.Validation("image", "image is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, apperror.Validation("image", "image is larger than 10 MB")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.Validation("image", "unsupported image format")
	}

	b := img.Bounds()
	if uint(b.Dx()) <= maxDim && uint(b.Dy()) <= maxDim {
		return &Image{Data: data, MediaType: "image/" + format}, nil
	}

	scaled := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}
	return &Image{Data: buf.Bytes(), MediaType: "image/jpeg"}, nil
}

// FetchImage downloads an image over http(s) and prepares it for a model.
func FetchImage(ctx context.Context, client *http.Client, rawURL string) (*Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperror.Validation("image_url", "image_url must be an http(s) URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return Prepare(data, MaxImageDimension)
}
