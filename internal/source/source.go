// Package source reads gabc input for the CLI from files or standard
// input, transparently decompressing xz and gzip streams.
package source

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"unicode/utf8"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/internal/validation"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// StdinName names standard input in diagnostics.
const StdinName = "<stdin>"

// Source is one decoded gabc input.
type Source struct {
	// Name is the path given on the command line, or StdinName.
	Name string
	// Text is the decompressed source.
	Text string
	// Compression is the detected container, empty for plain text.
	Compression validation.FileType
	// RawSize is the number of bytes read before decompression.
	RawSize int64
}

// Read opens path, or stdin when path is Stdin, and decodes it.
func Read(path string, stdin io.Reader) (*Source, error) {
	if path == Stdin {
		return Decode(StdinName, stdin)
	}
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.NewValidation("path", err.Error())
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()
	return Decode(path, f)
}

// Decode reads r to the end, decompressing it if it starts with xz or gzip
// magic bytes. The decompressed text must be valid UTF-8 and no larger than
// validation.MaxFileSize.
func Decode(name string, r io.Reader) (*Source, error) {
	counted := &countingReader{r: r}
	br := bufio.NewReaderSize(counted, validation.SniffLength)
	head, err := br.Peek(validation.SniffLength)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, errors.NewIO("read", name, err)
	}

	src := &Source{Name: name}
	var body io.Reader = br
	switch validation.DetectFileType(head) {
	case validation.FileTypeGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.NewIO("gzip", name, err)
		}
		defer zr.Close()
		src.Compression, body = validation.FileTypeGzip, zr
	case validation.FileTypeXZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, errors.NewIO("xz", name, err)
		}
		src.Compression, body = validation.FileTypeXZ, xr
	}

	data, err := io.ReadAll(io.LimitReader(body, validation.MaxFileSize+1))
	if err != nil {
		return nil, errors.NewIO("read", name, err)
	}
	if err := validation.ValidateSize(int64(len(data))); err != nil {
		return nil, errors.NewValidation(name, err.Error())
	}
	if !utf8.Valid(data) {
		return nil, errors.NewValidation(name, "input is not valid UTF-8")
	}
	src.Text = string(data)
	src.RawSize = counted.n
	return src, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
