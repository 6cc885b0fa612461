package downloader

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrChecksumMismatch is returned when a file does not hash to its content hash
var ErrChecksumMismatch = errors.New("checksum mismatch")

// md5HexLen is the length of a hex-encoded MD5 digest
const md5HexLen = 32

// VerifyChecksum verifies the MD5 checksum of the file at path
func VerifyChecksum(path, expected string) error {
	if path == "" {
		return fmt.Errorf("file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}

	checksum := fmt.Sprintf("%x", hash.Sum(nil))
	expected = strings.ToLower(strings.TrimSpace(expected))
	if checksum != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, checksum)
	}

	return nil
}

// isMD5 reports whether hash looks like a hex MD5 digest
func isMD5(hash string) bool {
	if len(hash) != md5HexLen {
		return false
	}
	for _, r := range strings.ToLower(hash) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
