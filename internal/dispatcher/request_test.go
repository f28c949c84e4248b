package dispatcher

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadHeader(t *testing.T) {
	t.Parallel()

	t.Run("stops at blank line", func(t *testing.T) {
		t.Parallel()

		r := strings.NewReader("CONNECT example.com:443 HTTP/1.1\r\nHost: example.com\r\n\r\nTLS bytes")
		header, err := readHeader(r)
		if err != nil {
			t.Fatalf("readHeader() error = %v", err)
		}
		want := "CONNECT example.com:443 HTTP/1.1\r\nHost: example.com\r\n\r\n"
		if string(header) != want {
			t.Errorf("header = %q, want %q", header, want)
		}
		rest, _ := io.ReadAll(r)
		if string(rest) != "TLS bytes" {
			t.Errorf("bytes after header = %q, want %q", rest, "TLS bytes")
		}
	})

	t.Run("header at the size limit is accepted", func(t *testing.T) {
		t.Parallel()

		line := "CONNECT a:1 HTTP/1.1\r\nX: "
		pad := strings.Repeat("a", MaxHeaderSize-len(line)-4)
		input := line + pad + "\r\n\r\n"
		if len(input) != MaxHeaderSize {
			t.Fatalf("test input is %d bytes, want %d", len(input), MaxHeaderSize)
		}
		if _, err := readHeader(strings.NewReader(input)); err != nil {
			t.Errorf("readHeader() error = %v", err)
		}
	})

	t.Run("oversized header is rejected", func(t *testing.T) {
		t.Parallel()

		input := "CONNECT a:1 HTTP/1.1\r\nX: " + strings.Repeat("a", MaxHeaderSize) + "\r\n\r\n"
		r := strings.NewReader(input)
		_, err := readHeader(r)
		if !errors.Is(err, ErrHeaderTooLarge) {
			t.Fatalf("readHeader() error = %v, want ErrHeaderTooLarge", err)
		}
		if consumed := len(input) - r.Len(); consumed != MaxHeaderSize+1 {
			t.Errorf("consumed %d bytes, want %d", consumed, MaxHeaderSize+1)
		}
	})

	t.Run("client hangs up early", func(t *testing.T) {
		t.Parallel()

		_, err := readHeader(strings.NewReader("CONNECT example.com:443 HTTP/1.1\r\n"))
		if !errors.Is(err, ErrClientClosed) {
			t.Errorf("readHeader() error = %v, want ErrClientClosed", err)
		}
	})

	t.Run("empty stream", func(t *testing.T) {
		t.Parallel()

		_, err := readHeader(bytes.NewReader(nil))
		if !errors.Is(err, ErrClientClosed) {
			t.Errorf("readHeader() error = %v, want ErrClientClosed", err)
		}
	})
}

func TestParseRequest(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		header  string
		want    Request
		wantErr error
	}{
		{
			name:   "connect",
			header: "CONNECT example.com:443 HTTP/1.1\r\nHost: example.com\r\n\r\n",
			want:   Request{Method: "CONNECT", Target: "example.com:443", Version: "HTTP/1.1"},
		},
		{
			name:   "other method",
			header: "GET / HTTP/1.1\r\n\r\n",
			want:   Request{Method: "GET", Target: "/", Version: "HTTP/1.1"},
		},
		{
			name:   "missing version",
			header: "CONNECT example.com:443\r\n\r\n",
			want:   Request{Method: "CONNECT", Target: "example.com:443"},
		},
		{
			name:   "extra whitespace",
			header: "  CONNECT   example.com:443   HTTP/1.1 \r\n\r\n",
			want:   Request{Method: "CONNECT", Target: "example.com:443", Version: "HTTP/1.1"},
		},
		{
			name:    "blank request line",
			header:  "\r\n\r\n",
			wantErr: ErrEmptyRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseRequest([]byte(tc.header))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("parseRequest() error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("parseRequest() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRequestIsConnect(t *testing.T) {
	t.Parallel()

	if !(Request{Method: "CONNECT"}).IsConnect() {
		t.Error("CONNECT should be a tunnel request")
	}
	// Methods are case-sensitive.
	if (Request{Method: "connect"}).IsConnect() {
		t.Error("lowercase connect should not be a tunnel request")
	}
}
