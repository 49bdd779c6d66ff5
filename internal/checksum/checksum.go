// Package checksum fingerprints backup snapshots so a restore can tell a
// complete copy from a truncated one.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// File returns the hex SHA-256 of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteSidecar records the checksum of path in path + ".sha256", in the
// conventional "<sum>  <name>" format sha256sum -c understands.
func WriteSidecar(path string) (string, error) {
	sum, err := File(path)
	if err != nil {
		return "", err
	}
	line := fmt.Sprintf("%s  %s\n", sum, baseName(path))
	if err := os.WriteFile(path+".sha256", []byte(line), 0644); err != nil {
		return "", err
	}
	return sum, nil
}

// Verify recomputes the checksum of path and compares it against its
// sidecar file.
func Verify(path string) (bool, error) {
	raw, err := os.ReadFile(path + ".sha256")
	if err != nil {
		return false, err
	}
	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return false, fmt.Errorf("empty checksum sidecar for %s", path)
	}
	sum, err := File(path)
	if err != nil {
		return false, err
	}
	return sum == fields[0], nil
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
