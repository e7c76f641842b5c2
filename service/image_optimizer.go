package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"storefront/models"
)

const (
	defaultCacheDir = "cache/images"
	// Quality settings
	qualityThumb  = 60
	qualityMedium = 75
	// Size settings (max dimension)
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

// Thumbnail sizes
const (
	SizeThumb  = "thumb"
	SizeMedium = "medium"
)

// ErrNoImage is returned for products without an image URL
var ErrNoImage = errors.New("product has no image")

// ThumbnailService fetches product images and keeps resized JPEG copies on disk
type ThumbnailService struct {
	fetcher  ImageFetcher
	cacheDir string
	log      *zap.Logger
}

// NewThumbnailService creates a new ThumbnailService caching under cacheDir
func NewThumbnailService(fetcher ImageFetcher, cacheDir string, log *zap.Logger) *ThumbnailService {
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ThumbnailService{fetcher: fetcher, cacheDir: cacheDir, log: log}
}

// Thumbnail returns the resized JPEG for product, from cache when present
func (s *ThumbnailService) Thumbnail(ctx context.Context, product models.Product, size string) ([]byte, error) {
	if product.ImageURL == "" {
		return nil, ErrNoImage
	}
	size = normalizeSize(size)

	cachePath := s.CachePath(product.ID, size)
	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	raw, err := s.fetcher.FetchImage(ctx, product.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image for product %s: %w", product.ID, err)
	}

	optimized, err := OptimizeImage(raw, size)
	if err != nil {
		return nil, fmt.Errorf("failed to optimize image for product %s: %w", product.ID, err)
	}

	if err := s.saveToCache(cachePath, optimized); err != nil {
		// serve the image anyway
		s.log.Warn("failed to cache thumbnail", zap.String("path", cachePath), zap.Error(err))
	}
	return optimized, nil
}

// CachePath returns the cache file path for a product id and size
func (s *ThumbnailService) CachePath(productID, size string) string {
	filename := fmt.Sprintf("product_%s_%s.jpg", sanitizeID(productID), normalizeSize(size))
	return filepath.Join(s.cacheDir, filename)
}

func (s *ThumbnailService) saveToCache(cachePath string, data []byte) error {
	dir := filepath.Dir(cachePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".thumb-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}

	s.log.Debug("thumbnail cached", zap.String("path", cachePath))
	return nil
}

// OptimizeImage converts raw image bytes (PNG, JPEG, GIF...) into a JPEG no
// larger than the size's max dimension. Smaller images are not upscaled.
func OptimizeImage(imageData []byte, size string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	maxDim, quality := maxSizeMedium, qualityMedium
	if normalizeSize(size) == SizeThumb {
		maxDim, quality = maxSizeThumb, qualityThumb
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeSize(size string) string {
	if size == SizeThumb {
		return SizeThumb
	}
	return SizeMedium
}

// sanitizeID keeps product ids safe for use in file names
func sanitizeID(id string) string {
	if id == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
}
