package helpers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// ChaosMode defines the type of chaos to inject
type ChaosMode int

const (
	// ChaosNone forwards requests unchanged
	ChaosNone ChaosMode = iota

	// ChaosConnectionReset fails before any response is received
	ChaosConnectionReset

	// ChaosPartialRead forwards the request, then fails the body read after
	// PartialReadBytes bytes
	ChaosPartialRead

	// ChaosSlowResponse delays the request by Delay or until the request
	// context is done
	ChaosSlowResponse

	// ChaosEmptyBody answers 200 with no body
	ChaosEmptyBody

	// ChaosInvalidJSON answers 200 with a body that is not JSON
	ChaosInvalidJSON

	// ChaosDNSFailure fails with a DNS error
	ChaosDNSFailure
)

// ErrConnectionReset is returned by ChaosConnectionReset and ChaosPartialRead
var ErrConnectionReset = errors.New("connection reset by peer")

// ChaosTransport is an http.RoundTripper that injects failures in front of
// Base (http.DefaultTransport when nil)
type ChaosTransport struct {
	Base             http.RoundTripper
	Mode             ChaosMode
	PartialReadBytes int
	Delay            time.Duration

	requests atomic.Int64
}

// Requests returns the number of requests seen by the transport
func (c *ChaosTransport) Requests() int64 {
	return c.requests.Load()
}

// RoundTrip implements http.RoundTripper
func (c *ChaosTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.requests.Add(1)

	switch c.Mode {
	case ChaosConnectionReset:
		return nil, ErrConnectionReset

	case ChaosDNSFailure:
		return nil, &DNSError{Err: "no such host", Server: "8.8.8.8"}

	case ChaosSlowResponse:
		select {
		case <-time.After(c.Delay):
			return c.base().RoundTrip(req)
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}

	case ChaosPartialRead:
		resp, err := c.base().RoundTrip(req)
		if err != nil {
			return nil, err
		}
		resp.Body = &partialReadCloser{body: resp.Body, remaining: c.PartialReadBytes}
		return resp, nil

	case ChaosEmptyBody:
		return syntheticResponse(req, ""), nil

	case ChaosInvalidJSON:
		return syntheticResponse(req, `{"id_str": "6253282", "name": `), nil

	default:
		return c.base().RoundTrip(req)
	}
}

func (c *ChaosTransport) base() http.RoundTripper {
	if c.Base != nil {
		return c.Base
	}
	return http.DefaultTransport
}

func syntheticResponse(req *http.Request, body string) *http.Response {
	if req.Body != nil {
		_ = req.Body.Close()
	}
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"application/json"}},
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// partialReadCloser passes through the first remaining bytes of body, then
// fails
type partialReadCloser struct {
	body      io.ReadCloser
	remaining int
}

func (p *partialReadCloser) Read(buf []byte) (int, error) {
	if p.remaining <= 0 {
		return 0, ErrConnectionReset
	}
	if len(buf) > p.remaining {
		buf = buf[:p.remaining]
	}
	n, err := p.body.Read(buf)
	p.remaining -= n
	return n, err
}

func (p *partialReadCloser) Close() error {
	return p.body.Close()
}

// DNSError simulates DNS lookup failures
type DNSError struct {
	Err    string
	Server string
}

func (e *DNSError) Error() string {
	var sb strings.Builder
	sb.WriteString("lookup failed")
	if e.Server != "" {
		sb.WriteString(" on " + e.Server)
	}
	sb.WriteString(": " + e.Err)
	return sb.String()
}

func (e *DNSError) Temporary() bool {
	return true
}

func (e *DNSError) Timeout() bool {
	return false
}
