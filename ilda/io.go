package ilda

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// File is a SectionReader over a buffered file. Files starting with the
// zstd frame magic are decompressed on the fly.
type File struct {
	*SectionReader
	src io.Reader
	f   *os.File
	zr  *zstd.Decoder
}

// Open opens path for reading sections.
func Open(path string, opts ...Option) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	file := &File{src: br, f: f}
	if magic, _ := br.Peek(len(zstdMagic)); bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd stream %s: %w", path, err)
		}
		file.zr = zr
		file.src = zr
	}
	file.SectionReader = NewSectionReader(file.src, opts...)
	return file, nil
}

// Close releases the file.
func (f *File) Close() error {
	if f.zr != nil {
		f.zr.Close()
	}
	return f.f.Close()
}

// FileWriter is a SectionWriter over a buffered file. Paths ending in
// ".zst" are zstd-compressed.
type FileWriter struct {
	*SectionWriter
	f  *os.File
	bw *bufio.Writer
	zw *zstd.Encoder
}

// Create creates or truncates path for writing sections.
func Create(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{f: f, bw: bufio.NewWriter(f)}
	var dst io.Writer = fw.bw
	if strings.HasSuffix(path, ".zst") {
		zw, err := zstd.NewWriter(fw.bw)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create zstd stream %s: %w", path, err)
		}
		fw.zw = zw
		dst = zw
	}
	fw.SectionWriter = NewSectionWriter(dst)
	return fw, nil
}

// Write writes already encoded stream bytes.
func (w *FileWriter) Write(p []byte) (int, error) {
	return w.SectionWriter.w.Write(p)
}

// Close flushes buffered data and closes the file.
func (w *FileWriter) Close() error {
	var errs []error
	if w.zw != nil {
		errs = append(errs, w.zw.Close())
	}
	errs = append(errs, w.bw.Flush(), w.f.Close())
	return errors.Join(errs...)
}

// ReadFile decodes the whole stream stored at path.
func ReadFile(path string, opts ...Option) (*Stream, error) {
	f, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f.src, opts...)
}

// ReadBytes returns the raw stream stored at path, decompressed when the
// file is zstd-compressed.
func ReadBytes(path string) ([]byte, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f.src)
}

// WriteFile encodes s to path. opts are passed on to Encode.
func WriteFile(path string, s *Stream, opts ...Option) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := Encode(w.SectionWriter.w, s, opts...); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
