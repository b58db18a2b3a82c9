package loader

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const scannerBufferSize = 1 << 20 // 1 MB

var gzipMagic = []byte{0x1f, 0x8b}

// countingReader counts the bytes read from the underlying file.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Source is an opened input file, transparently decompressed.
type Source struct {
	io.Reader
	file    *os.File
	gz      *gzip.Reader
	counter *countingReader
}

// Open opens path for reading. Gzip data is detected by its magic bytes, so
// compressed files need not carry a .gz suffix.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	counter := &countingReader{r: f}
	br := bufio.NewReaderSize(counter, 64*1024)

	src := &Source{Reader: br, file: f, counter: counter}
	magic, err := br.Peek(len(gzipMagic))
	if err == nil && bytes.Equal(magic, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, err
		}
		src.gz = gz
		src.Reader = gz
	}
	return src, nil
}

// Compressed reports whether the file is gzip encoded.
func (s *Source) Compressed() bool { return s.gz != nil }

// BytesRead returns how many bytes have been read from the file on disk.
func (s *Source) BytesRead() int64 { return s.counter.n }

// Close closes the decompressor, if any, and the file.
func (s *Source) Close() error {
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			s.file.Close()
			return err
		}
	}
	return s.file.Close()
}

// ReadTSV reads tab-delimited child, parent, relation rows, skipping the
// first headerLines lines, blank lines and lines starting with '#'. Extra
// columns are ignored. Rows with fewer than three columns are returned as
// record errors rather than failing the whole read.
func ReadTSV(r io.Reader, source string, headerLines int) ([]Record, []*RecordError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), scannerBufferSize)

	records := make([]Record, 0, 1024)
	var bad []*RecordError
	line := 0
	for scanner.Scan() {
		line++
		if line <= headerLines {
			continue
		}
		text := scanner.Text()
		if strings.TrimSpace(text) == "" || text[0] == '#' {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) < 3 {
			bad = append(bad, &RecordError{Source: source, Line: line, Err: ErrMalformedRecord})
			continue
		}
		records = append(records, Record{
			Source:   source,
			Line:     line,
			Child:    cols[0],
			Parent:   cols[1],
			Relation: cols[2],
		})
	}
	return records, bad, scanner.Err()
}
