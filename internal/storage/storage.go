// Package storage keeps uploaded artifacts (order attachments, payment proofs,
// company logo) on local disk under time and name addressed paths.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	ErrInvalidPath  = errors.New("storage: invalid path")
	ErrTooLarge     = errors.New("storage: file too large")
	ErrNotAnImage   = errors.New("storage: not a supported image")
	ErrExtension    = errors.New("storage: file type not allowed")
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// Stored describes a file written to the store. Path is relative to the root
// and is what rows reference.
type Stored struct {
	Path      string
	Name      string
	Extension string
	Size      int64
}

// Local is a filesystem backed store.
type Local struct {
	root string
	now  func() time.Time
}

func NewLocal(root string) *Local {
	return &Local{root: root, now: time.Now}
}

// Save writes r under category/YYYY/MM/<unix>-<uuid>-<name>, reading at most maxBytes.
// A maxBytes of 0 means no limit.
func (s *Local) Save(category, originalName string, r io.Reader, maxBytes int64) (Stored, error) {
	data, err := readLimited(r, maxBytes)
	if err != nil {
		return Stored{}, err
	}
	return s.write(category, originalName, data)
}

// SaveImage validates data as an image, downscales it to maxWidth when wider and
// stores it in its original format.
func (s *Local) SaveImage(category, originalName string, r io.Reader, maxBytes int64, maxWidth int) (Stored, error) {
	data, err := readLimited(r, maxBytes)
	if err != nil {
		return Stored{}, err
	}
	out, ext, err := NormalizeImage(data, maxWidth)
	if err != nil {
		return Stored{}, err
	}
	name := strings.TrimSuffix(originalName, filepath.Ext(originalName)) + "." + ext
	return s.write(category, name, out)
}

// NormalizeImage decodes data and re-encodes it, resized when wider than maxWidth.
// It returns the encoded bytes and the file extension of the detected format.
func NormalizeImage(data []byte, maxWidth int) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", ErrNotAnImage
	}
	imgFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, "", ErrNotAnImage
	}
	if maxWidth <= 0 || cfg.Width <= maxWidth {
		return data, extensionFor(format), nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", ErrNotAnImage
	}
	img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imgFormat, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), extensionFor(format), nil
}

func extensionFor(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

func (s *Local) write(category, originalName string, data []byte) (Stored, error) {
	now := s.now()
	name := SanitizeName(originalName)
	rel := path.Join(
		SanitizeName(category),
		now.Format("2006"), now.Format("01"),
		fmt.Sprintf("%d-%s-%s", now.Unix(), uuid.NewString(), name),
	)
	abs, err := s.Resolve(rel)
	if err != nil {
		return Stored{}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Stored{}, err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return Stored{}, err
	}
	return Stored{
		Path:      rel,
		Name:      originalName,
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		Size:      int64(len(data)),
	}, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *Local) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	abs, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Open opens a stored file for reading.
func (s *Local) Open(rel string) (*os.File, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(abs)
}

// Resolve maps a relative store path to an absolute one, refusing paths that
// escape the root.
func (s *Local) Resolve(rel string) (string, error) {
	if rel == "" || strings.HasPrefix(rel, "/") || strings.Contains(rel, "\\") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// SanitizeName keeps a file name safe for paths.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > 100 {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:100-len(ext)] + ext
	}
	return name
}

// CheckExtension reports ErrExtension unless name has one of the allowed extensions.
func CheckExtension(name string, allowed []string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return ErrExtension
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
