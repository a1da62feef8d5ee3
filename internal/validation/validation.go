// Package validation checks command-line inputs before they are opened:
// path sanity, size limits, and the kind of content a file holds.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Limits on inputs read by the CLI.
const (
	// MaxFileSize is the largest decompressed gabc source accepted (16 MB).
	MaxFileSize = 16 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// SniffLength is how many leading bytes DetectFileType needs.
	SniffLength = 512
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrTooLarge         = errors.New("input exceeds size limit")
)

// ValidateFilename checks that filename is a single safe path element.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	// A leading hyphen reads as a flag.
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// ValidatePath checks length and character limits on a path without
// resolving it.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateSize rejects sizes above MaxFileSize.
func ValidateSize(size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, MaxFileSize)
	}
	return nil
}

// FileType is the kind of content detected at the start of an input.
type FileType string

const (
	FileTypeGzip    FileType = "gzip"
	FileTypeXZ      FileType = "xz"
	FileTypeText    FileType = "text"
	FileTypeUnknown FileType = "unknown"
)

var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
}

// DetectFileType classifies buf, the first SniffLength bytes of an input,
// as a compressed stream, text, or unknown binary.
func DetectFileType(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	if isLikelyText(buf) {
		return FileTypeText
	}
	return FileTypeUnknown
}

// isLikelyText reports whether more than 95% of the bytes that are not
// part of a multi-byte UTF-8 sequence are printable.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
	}
	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
