// Package media stores uploaded airplane images on local disk.  The
// database keeps the path relative to Root; URL turns it into the public
// address served under the media URL prefix.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	ErrTooLarge = errors.New("The uploaded file is too large.")
	ErrEmpty    = errors.New("The submitted file is empty.")
)

// Store writes files below Root and renders them under URLPrefix.
type Store struct {
	Root      string
	URLPrefix string
	MaxBytes  int64
}

func New(root, urlPrefix string, maxBytes int64) *Store {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Store{Root: root, URLPrefix: urlPrefix, MaxBytes: maxBytes}
}

// SaveAirplaneImage sniffs r and, when it is an image, writes it as
// airplanes/<slug(name)>-<uuid><ext>.  The relative path is returned.
func (s *Store) SaveAirplaneImage(name string, r io.Reader) (string, error) {
	limit := s.MaxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > limit {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}

	rel := path.Join("airplanes", fmt.Sprintf("%s-%s%s", Slugify(name), uuid.NewString(), mt.Extension()))
	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

// Remove deletes a previously stored file.  Missing files are ignored.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// URL returns the public address of rel, or nil when no file is set so the
// JSON field renders as null.
func (s *Store) URL(rel string) any {
	if rel == "" {
		return nil
	}
	return s.URLPrefix + rel
}

// Slugify lower-cases name and joins its ASCII letters and digits with
// single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "airplane"
	}
	return out
}
