// Package images decodes, sniffs and stores recipe images.
package images

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxSize is the largest accepted image payload.
const MaxSize = 10 << 20

var (
	ErrInvalidDataURI   = errors.New("image must be a base64 data URI")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyImage       = errors.New("image is empty")
	ErrTooLarge         = errors.New("image is too large")
)

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodeDataURI decodes "data:<mime>;base64,<payload>". The declared mime
// type is not trusted; Sniff checks the decoded bytes.
func DecodeDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrInvalidDataURI
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxSize {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return data, nil
}

// Sniff detects the content type of data and returns the file extension
// for it. Only jpeg, png, gif and webp are accepted.
func Sniff(data []byte) (mime, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmptyImage
	}
	if len(data) > MaxSize {
		return "", "", ErrTooLarge
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if ext, ok := allowed[m.String()]; ok {
			return m.String(), ext, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, detected.String())
}

// Stored describes a saved image.
type Stored struct {
	// Path is relative to the media root, using forward slashes.
	Path     string
	BlurHash string
}

// Storage writes recipe images below {root}/recipes/images.
type Storage struct {
	root   string
	subdir string
}

// NewStorage creates the image directory under root.
func NewStorage(root string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}
	s := &Storage{root: root, subdir: path.Join("recipes", "images")}
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(s.subdir)), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return s, nil
}

// Save validates data, writes it under a random name and computes its BlurHash.
func (s *Storage) Save(data []byte) (*Stored, error) {
	_, ext, err := Sniff(data)
	if err != nil {
		return nil, err
	}
	hash, err := ComputeBlurHash(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	rel := path.Join(s.subdir, uuid.NewString()+ext)
	if err := os.WriteFile(s.fullPath(rel), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}
	return &Stored{Path: rel, BlurHash: hash}, nil
}

// Delete removes a stored image. Missing files are not an error.
func (s *Storage) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	if err := os.Remove(s.fullPath(rel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

func (s *Storage) fullPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/" + rel)))
}
