package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
)

// streamReadSize is the size of each read from a streaming body.
const streamReadSize = 4096

var lineTerminator = []byte("\r\n")

// ChunkSplitter reassembles newline-delimited JSON documents from arbitrary
// increments of a stream. Lines end in CRLF; a bare LF is JSON whitespace and
// stays inside the line. The trailing partial line is buffered until its
// terminator arrives.
// A ChunkSplitter belongs to a single stream.
type ChunkSplitter struct {
	buf []byte
	// Dropped, when set, is called for every complete line that is not valid
	// JSON. The stream continues.
	Dropped func(*twerrors.DecodingError)
}

// Feed appends p to the buffer and returns the documents on every complete,
// non-empty line.
func (s *ChunkSplitter) Feed(p []byte) []json.RawMessage {
	s.buf = append(s.buf, p...)

	var docs []json.RawMessage
	for {
		i := bytes.Index(s.buf, lineTerminator)
		if i < 0 {
			break
		}
		line := s.buf[:i]
		s.buf = s.buf[i+len(lineTerminator):]
		if doc, ok := s.parse(line); ok {
			docs = append(docs, doc)
		}
	}

	if len(s.buf) == 0 {
		// Release the backing array once everything has been consumed.
		s.buf = nil
	}
	return docs
}

// Flush returns the buffered remainder as a document if it is valid JSON,
// and clears the buffer. It is used when the stream ends without a final
// line terminator.
func (s *ChunkSplitter) Flush() (json.RawMessage, bool) {
	line := s.buf
	s.buf = nil
	return s.parse(line)
}

// Buffered returns the number of bytes waiting for a line terminator.
func (s *ChunkSplitter) Buffered() int {
	return len(s.buf)
}

// Reset discards any partial line.
func (s *ChunkSplitter) Reset() {
	s.buf = nil
}

func (s *ChunkSplitter) parse(line []byte) (json.RawMessage, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		// Keep-alive.
		return nil, false
	}
	if !json.Valid(line) {
		if s.Dropped != nil {
			var probe any
			err := json.Unmarshal(line, &probe)
			s.Dropped(twerrors.NewDecodingError("stream chunk", line, err))
		}
		return nil, false
	}
	// Copy: line aliases the splitter's buffer.
	return json.RawMessage(bytes.Clone(line)), true
}

// stream performs a streaming request, handing every document to emit until
// the body ends, emit returns false or ctx is done. The returned Response has
// no Body.
func (e *Engine) stream(ctx context.Context, spec RequestSpec, sign SignFunc, emit func(json.RawMessage) bool) (*Response, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	resp, err := e.send(ctx, spec, sign)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(resp.StatusCode, readErrorBody(resp.Body))
	}

	splitter := &ChunkSplitter{
		Dropped: func(err *twerrors.DecodingError) {
			e.logger.DebugContext(ctx, "dropping malformed stream line", "url", spec.URL, "error", err, "data", err.Data)
		},
	}

	result := &Response{StatusCode: resp.StatusCode, Header: resp.Header}
	buf := make([]byte, streamReadSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, doc := range splitter.Feed(buf[:n]) {
				if !emit(doc) {
					return result, nil
				}
			}
		}

		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			if doc, ok := splitter.Flush(); ok {
				emit(doc)
			}
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			readErr = ctxErr
		}
		return nil, &twerrors.NetworkError{Operation: spec.method(), URL: spec.URL, Err: readErr}
	}
}
