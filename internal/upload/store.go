// Package upload owns the upload directory: client logos stored under their
// sanitized names, and per-request scratch copies of receipt documents.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Store writes files into a single flat directory.
type Store struct {
	dir string
}

// NewStore creates dir if it does not exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: create dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string { return s.dir }

// SaveLogo writes r to the directory under the sanitized form of name,
// replacing any existing file with that name, and returns the stored name.
// Concurrent uploads of the same name race; the last writer wins.
func (s *Store) SaveLogo(name string, r io.Reader) (string, error) {
	safe := SecureFilename(name)
	if safe == "" {
		return "", fmt.Errorf("upload: filename %q is empty after sanitizing", name)
	}
	if err := writeFile(filepath.Join(s.dir, safe), r); err != nil {
		return "", err
	}
	return safe, nil
}

// SaveScratch stores a receipt document under a name unique to this call
// and returns its path. The caller removes it with Remove.
func (s *Store) SaveScratch(r io.Reader) (string, error) {
	path := filepath.Join(s.dir, "receipt-"+uuid.NewString()+".pdf")
	if err := writeFile(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes a scratch file. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("upload: remove %s: %w", path, err)
	}
	return nil
}

// Lookup returns the path of a stored file by name. ok is false when name is
// not a plain sanitized filename or the file does not exist.
func (s *Store) Lookup(name string) (path string, ok bool) {
	if name == "" || SecureFilename(name) != name {
		return "", false
	}
	path = filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("upload: create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("upload: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("upload: close %s: %w", path, err)
	}
	return nil
}

// ─── FILENAMES ────────────────────────────────────────────────────────────────

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"pdf":  true,
}

// AllowedFile reports whether name has an accepted extension. The extension
// is the text after the last dot, compared case-insensitively.
func AllowedFile(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	return allowedExtensions[strings.ToLower(name[i+1:])]
}

// SecureFilename reduces a client-supplied filename to a safe, flat ASCII
// name: compatibility-decomposed, non-ASCII dropped, slashes and whitespace
// runs turned into "_", anything outside [A-Za-z0-9_.-] removed,
// and leading or trailing "." and "_" trimmed. The result may be empty.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var ascii strings.Builder
	for _, r := range name {
		switch {
		case r == '/':
			ascii.WriteByte(' ')
		case r < utf8.RuneSelf:
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var out strings.Builder
	for i := 0; i < len(joined); i++ {
		c := joined[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			c == '_' || c == '.' || c == '-' {
			out.WriteByte(c)
		}
	}

	return strings.Trim(out.String(), "._")
}
