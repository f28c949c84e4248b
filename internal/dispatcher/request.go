package dispatcher

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// MaxHeaderSize is the largest request header accepted, in bytes.
const MaxHeaderSize = 8192

// methodConnect is the only method the dispatcher serves.
const methodConnect = "CONNECT"

// headerTerminator ends the request header.
var headerTerminator = []byte("\r\n\r\n")

// Request is the parsed request line.
type Request struct {
	Method  string
	Target  string
	Version string
}

// IsConnect reports whether the request asks for a tunnel.
func (r Request) IsConnect() bool {
	return r.Method == methodConnect
}

// readHeader reads from r one byte at a time until the header terminator
// and returns everything read, terminator included. Reading byte by byte
// guarantees nothing past the header is consumed.
func readHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, 1024)
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n == 1 {
			buf = append(buf, b[0])
			if bytes.HasSuffix(buf, headerTerminator) {
				return buf, nil
			}
			if len(buf) > MaxHeaderSize {
				return nil, ErrHeaderTooLarge
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrClientClosed
			}
			return nil, err
		}
	}
}

// parseRequest extracts the request line from header.
// Fields are separated by whitespace; missing fields are left empty.
func parseRequest(header []byte) (Request, error) {
	line, _, _ := strings.Cut(string(header), "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}, ErrEmptyRequest
	}

	req := Request{Method: fields[0]}
	if len(fields) > 1 {
		req.Target = fields[1]
	}
	if len(fields) > 2 {
		req.Version = fields[2]
	}
	return req, nil
}
