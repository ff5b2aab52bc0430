// Package envelope builds the (status, gzip-compressed XML) pairs returned by
// every fake gateway operation.
package envelope

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"fakegateway/pkg/platform/xmlcodec"
)

// Response is a status code plus a gzip-compressed XML document.
type Response struct {
	Status int
	Body   []byte
}

// New compresses document and pairs it with status. The gzip header carries
// no name or modification time, so equal documents yield equal bodies.
func New(status int, document []byte) (*Response, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(document); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return &Response{Status: status, Body: buf.Bytes()}, nil
}

// XML renders m under root and wraps it in a Response.
func XML(status int, root string, m xmlcodec.Map) (*Response, error) {
	doc, err := xmlcodec.Marshal(root, m)
	if err != nil {
		return nil, err
	}
	return New(status, doc)
}

// Decompress returns the XML document carried by the response.
func (r *Response) Decompress() ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// Decode decompresses and parses the response document.
func (r *Response) Decode() (string, xmlcodec.Map, error) {
	doc, err := r.Decompress()
	if err != nil {
		return "", nil, err
	}
	return xmlcodec.Unmarshal(doc)
}
