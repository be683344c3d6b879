package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const imageFilePrefix = "category-"

var (
	// ErrUnsupportedImage is returned for files that are not jpeg, png or gif.
	ErrUnsupportedImage = errors.New("only image files are allowed")
	// ErrImageTooLarge is returned when an upload exceeds the size limit.
	ErrImageTooLarge = errors.New("image is too large")
)

var allowedImageTypes = []string{"jpeg", "jpg", "png", "gif"}

// ImageLister reports the image paths still referenced by stored categories.
type ImageLister interface {
	ImagePaths(ctx context.Context) ([]string, error)
}

// ImageService stores uploaded category images on disk.
type ImageService struct {
	dir       string
	urlPrefix string
	maxBytes  int64
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewImageService(dir, urlPrefix string, maxBytes int64, log logrus.FieldLogger) (*ImageService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &ImageService{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxBytes:  maxBytes,
		log:       log,
		now:       time.Now,
	}, nil
}

// MaxBytes is the largest accepted image size.
func (s *ImageService) MaxBytes() int64 {
	return s.maxBytes
}

// Dir is the directory images are written to.
func (s *ImageService) Dir() string {
	return s.dir
}

// Save writes an uploaded file and returns the public path of the stored image.
// Both the extension of filename and contentType must name an allowed image type.
func (s *ImageService) Save(src io.Reader, filename, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImage(strings.TrimPrefix(ext, ".")) || !allowedImage(contentType) {
		return "", ErrUnsupportedImage
	}

	name := imageFilePrefix + uuid.NewString() + ext
	target := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	switch {
	case err != nil:
		_ = os.Remove(target)
		return "", fmt.Errorf("write image file: %w", err)
	case closeErr != nil:
		_ = os.Remove(target)
		return "", fmt.Errorf("close image file: %w", closeErr)
	case written > s.maxBytes:
		_ = os.Remove(target)
		return "", ErrImageTooLarge
	}

	return path.Join(s.urlPrefix, name), nil
}

// Remove deletes a stored image by its public path. Unknown paths are ignored.
func (s *ImageService) Remove(publicPath string) error {
	name := path.Base(publicPath)
	if !strings.HasPrefix(name, imageFilePrefix) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// SweepOrphans deletes stored images older than minAge that no category
// references. It returns the number of files removed.
func (s *ImageService) SweepOrphans(ctx context.Context, lister ImageLister, minAge time.Duration) (int, error) {
	paths, err := lister.ImagePaths(ctx)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		referenced[path.Base(p)] = struct{}{}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := s.now().Add(-minAge)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, imageFilePrefix) {
			continue
		}
		if _, ok := referenced[name]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.WithError(err).WithField("file", name).Warn("remove orphaned image")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.WithField("removed", removed).Info("orphaned images swept")
	}
	return removed, nil
}

func allowedImage(value string) bool {
	value = strings.ToLower(value)
	for _, t := range allowedImageTypes {
		if strings.Contains(value, t) {
			return true
		}
	}
	return false
}
