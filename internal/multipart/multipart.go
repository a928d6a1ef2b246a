// Package multipart encodes an ordered list of form fields as a
// multipart/form-data body.
//
// Fields are immutable values consumed by Encode, which fixes the boundary and
// the exact body length up front. File-backed parts are streamed from disk
// when the body is written, so large media files are never held in memory.
package multipart

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
)

const defaultBinaryType = "application/octet-stream"

// Content is the payload of a field. The only implementations are Text,
// Bytes and File.
type Content interface {
	content()
}

// Text is UTF-8 text content.
type Text string

// Bytes is raw binary content.
type Bytes []byte

// File is binary content read from the file at the given path.
type File string

func (Text) content()  {}
func (Bytes) content() {}
func (File) content()  {}

// Field is one form field. Filename and ContentType are optional; ContentType
// applies to Bytes and File content and defaults to application/octet-stream.
type Field struct {
	Name        string
	Filename    string
	ContentType string
	Content     Content
}

// Body is an encoded multipart body ready to be written.
type Body struct {
	Boundary    string
	ContentType string
	// Length is the exact number of bytes WriteTo produces, as long as the
	// files it references are not modified in between.
	Length int64

	fields []Field
	sizes  []int64
}

// Encode prepares fields for transmission. It picks a random boundary and
// checks that every referenced file exists. It panics on a field whose
// content is nil or of an unknown kind.
func Encode(fields []Field) (*Body, error) {
	boundary, err := randomBoundary()
	if err != nil {
		return nil, err
	}

	body := &Body{
		Boundary:    boundary,
		ContentType: "multipart/form-data; boundary=" + boundary,
		fields:      append([]Field(nil), fields...),
		sizes:       make([]int64, len(fields)),
	}

	for i, field := range body.fields {
		switch c := field.Content.(type) {
		case Text:
			body.sizes[i] = int64(len(c))
		case Bytes:
			body.sizes[i] = int64(len(c))
		case File:
			info, err := os.Stat(string(c))
			if err != nil {
				return nil, fmt.Errorf("multipart field %q: %w", field.Name, err)
			}
			if !info.Mode().IsRegular() {
				return nil, fmt.Errorf("multipart field %q: %s is not a regular file", field.Name, c)
			}
			body.sizes[i] = info.Size()
		default:
			panic(fmt.Sprintf("multipart: field %q has unsupported content %T", field.Name, field.Content))
		}
	}

	cw := &countingWriter{}
	if err := body.write(cw, true); err != nil {
		return nil, err
	}
	body.Length = cw.n

	return body, nil
}

// WriteTo writes the encoded body to w.
func (b *Body) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := b.write(cw, false)
	return cw.n, err
}

// Reader returns the body as a stream. Closing the reader stops the
// underlying writer.
func (b *Body) Reader() io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		_, err := b.WriteTo(pw)
		_ = pw.CloseWithError(err)
	}()
	return pr
}

func (b *Body) write(w *countingWriter, sizeOnly bool) error {
	// multipart.Writer.Close prefixes the closing delimiter with CRLF even
	// when no part precedes it.
	if len(b.fields) == 0 {
		if _, err := io.WriteString(w, "--"+b.Boundary+"--\r\n"); err != nil {
			return fmt.Errorf("close multipart body: %w", err)
		}
		return nil
	}

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(b.Boundary); err != nil {
		return fmt.Errorf("set multipart boundary: %w", err)
	}

	for i, field := range b.fields {
		part, err := mw.CreatePart(partHeader(field))
		if err != nil {
			return fmt.Errorf("create multipart field %q: %w", field.Name, err)
		}

		if sizeOnly {
			w.n += b.sizes[i]
			continue
		}

		switch c := field.Content.(type) {
		case Text:
			_, err = io.WriteString(part, string(c))
		case Bytes:
			_, err = part.Write(c)
		case File:
			err = copyFile(part, string(c))
		}
		if err != nil {
			return fmt.Errorf("write multipart field %q: %w", field.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}
	return nil
}

func partHeader(field Field) textproto.MIMEHeader {
	disposition := `form-data; name="` + escapeQuotes(field.Name) + `"`
	if field.Filename != "" {
		disposition += `; filename="` + escapeQuotes(field.Filename) + `"`
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", disposition)
	if _, isText := field.Content.(Text); !isText {
		contentType := field.ContentType
		if contentType == "" {
			contentType = defaultBinaryType
		}
		header.Set("Content-Type", contentType)
	}
	return header
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func randomBoundary() (string, error) {
	var buf [32]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		return "", fmt.Errorf("generate multipart boundary: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.w == nil {
		c.n += int64(len(p))
		return len(p), nil
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
