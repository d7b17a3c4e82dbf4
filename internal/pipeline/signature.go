package pipeline

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// Signature hashes the resolved configuration fingerprint together with each
// input's path relative to folder and its contents.
func Signature(fingerprint, folder string, files []string) (string, error) {
	hasher := blake3.New()
	_, _ = io.WriteString(hasher, fingerprint)
	_, _ = hasher.Write([]byte{0})

	for _, file := range files {
		rel, err := filepath.Rel(folder, file)
		if err != nil {
			rel = file
		}
		_, _ = io.WriteString(hasher, filepath.ToSlash(rel))
		_, _ = hasher.Write([]byte{0})
		if err := hashFile(hasher, file); err != nil {
			return "", err
		}
		_, _ = hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("hash input %s: %w", path, err)
	}
	return nil
}
