package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// TokenPlaceholder marks the path segment the backend expects the credential
// in, e.g. "/audio-records/{token}/". Pipeline expands it.
const TokenPlaceholder = "{token}"

// Request describes one backend call relative to the gateway base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header

	// Body is nil, a *Multipart form, an io.Reader sent with ContentType, or
	// any other value, which is encoded as JSON.
	Body        any
	ContentType string

	// LogPath replaces Path in logs and errors when set.
	LogPath string
}

// Response carries the metadata of a successful call. The decoded body is
// written to the out argument of Do.
type Response struct {
	StatusCode int
	Header     http.Header
	RequestID  string
}

func (r *Request) clone() *Request {
	cp := *r
	cp.Header = r.Header.Clone()
	if cp.Header == nil {
		cp.Header = http.Header{}
	}
	if r.Query != nil {
		cp.Query = url.Values{}
		for k, v := range r.Query {
			cp.Query[k] = append([]string(nil), v...)
		}
	}
	return &cp
}

func (r *Request) displayPath() string {
	if r.LogPath != "" {
		return r.LogPath
	}
	return r.Path
}

// ExpandToken substitutes credential for every TokenPlaceholder in path.
func ExpandToken(path, credential string) string {
	return strings.ReplaceAll(path, TokenPlaceholder, url.PathEscape(credential))
}

// Multipart is an ordered multipart/form-data body. Files are streamed when
// the request is sent.
type Multipart struct {
	parts []formPart
}

type formPart struct {
	field    string
	value    string
	filename string
	reader   io.Reader
}

// NewMultipart returns an empty form.
func NewMultipart() *Multipart {
	return &Multipart{}
}

// AddField appends a text field.
func (m *Multipart) AddField(name, value string) *Multipart {
	m.parts = append(m.parts, formPart{field: name, value: value})
	return m
}

// AddFile appends a file field read from r.
func (m *Multipart) AddFile(field, filename string, r io.Reader) *Multipart {
	m.parts = append(m.parts, formPart{field: field, filename: filename, reader: r})
	return m
}

// Fields lists the form field names in order.
func (m *Multipart) Fields() []string {
	names := make([]string, 0, len(m.parts))
	for _, part := range m.parts {
		names = append(names, part.field)
	}
	return names
}

// reader streams the encoded form through a pipe and returns it with its
// content type.
func (m *Multipart) reader() (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	contentType := writer.FormDataContentType()

	go func() {
		pw.CloseWithError(m.write(writer))
	}()
	return pr, contentType
}

func (m *Multipart) write(writer *multipart.Writer) error {
	for _, part := range m.parts {
		if part.reader == nil {
			if err := writer.WriteField(part.field, part.value); err != nil {
				return fmt.Errorf("write field %s: %w", part.field, err)
			}
			continue
		}
		dst, err := writer.CreateFormFile(part.field, part.filename)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", part.field, err)
		}
		if _, err := io.Copy(dst, part.reader); err != nil {
			return fmt.Errorf("stream form file %s: %w", part.field, err)
		}
	}
	return writer.Close()
}
