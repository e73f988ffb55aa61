package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"

	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/validation"
)

// StreamHandlers receive the messages of a stream. They run on the stream's
// goroutine, one at a time.
type StreamHandlers struct {
	// OnMessage receives every JSON document except stall warnings.
	OnMessage func(json.RawMessage)
	// OnStallWarning receives stall warnings. When nil they go to OnMessage.
	OnStallWarning func(types.StallWarning)
	// OnEnd is called once when the stream ends by itself: nil when the
	// server closed it cleanly, the failure otherwise. It is not called
	// after Stop.
	OnEnd func(error)
}

// Stream is a long-lived streaming request. It can be stopped and started
// again; each run starts from a clean buffer.
type Stream struct {
	client   *Client
	method   string
	base     BaseURL
	path     string
	params   oauth1.Params
	handlers StreamHandlers

	mu   sync.Mutex
	task *Task
}

// NewStream prepares a stream without connecting.
func (c *Client) NewStream(method string, base BaseURL, path string, params oauth1.Params, handlers StreamHandlers) *Stream {
	return &Stream{
		client:   c,
		method:   method,
		base:     base,
		path:     path,
		params:   params.Clone(),
		handlers: handlers,
	}
}

// Start connects the stream. It fails with a *errors.StateError if the
// stream is already running.
func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.task != nil {
		select {
		case <-s.task.Done():
		default:
			return &twerrors.StateError{Operation: "Stream.Start", Message: "stream is already running"}
		}
	}

	task, err := s.client.Start(ctx, s.method, s.base, s.path, s.params, Handlers{
		OnChunk:   s.dispatch,
		OnSuccess: func(*Response) { s.end(nil) },
		OnFailure: s.end,
	}, WithBodyFormat(BodyForm))
	if err != nil {
		return err
	}
	s.task = task
	return nil
}

// Stop disconnects the stream and waits for it to finish. No handler runs
// after Stop returns.
func (s *Stream) Stop() {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()

	if task == nil {
		return
	}
	task.Cancel()
	<-task.Done()
}

// Done is closed when the current run ends. It is nil before Start.
func (s *Stream) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task == nil {
		return nil
	}
	return s.task.Done()
}

// Wait blocks until the current run ends and returns its error. A stopped
// stream returns context.Canceled.
func (s *Stream) Wait() error {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()

	if task == nil {
		return &twerrors.StateError{Operation: "Stream.Wait", Message: "stream was never started"}
	}
	return task.Wait()
}

func (s *Stream) end(err error) {
	if s.handlers.OnEnd != nil {
		s.handlers.OnEnd(err)
	}
}

var warningKey = []byte(`"warning"`)

// isLengthPrefix reports whether doc is a bare byte count, the line that
// precedes every message when delimited=length is requested. Messages
// themselves are always objects.
func isLengthPrefix(doc json.RawMessage) bool {
	if len(doc) == 0 {
		return false
	}
	for _, b := range doc {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

func (s *Stream) dispatch(doc json.RawMessage) {
	if isLengthPrefix(doc) {
		return
	}
	if s.handlers.OnStallWarning != nil && bytes.Contains(doc, warningKey) {
		var envelope struct {
			Warning *types.StallWarning `json:"warning"`
		}
		if err := json.Unmarshal(doc, &envelope); err == nil && envelope.Warning != nil {
			s.handlers.OnStallWarning(*envelope.Warning)
			return
		}
	}
	if s.handlers.OnMessage != nil {
		s.handlers.OnMessage(doc)
	}
}

// FilterStream connects to statuses/filter. At least one of Follow, Track or
// Locations must be set; the request is rejected locally otherwise.
func (c *Client) FilterStream(ctx context.Context, request *types.FilterStreamRequest, handlers StreamHandlers) (*Stream, error) {
	if err := validation.ValidateFilterStreamRequest(request); err != nil {
		return nil, err
	}

	s := c.NewStream(http.MethodPost, StreamBase, "statuses/filter.json", request.Params(), handlers)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// SampleStream connects to statuses/sample, a small random sample of all
// public tweets. A nil request uses the API defaults.
func (c *Client) SampleStream(ctx context.Context, request *types.StreamRequest, handlers StreamHandlers) (*Stream, error) {
	s := c.NewStream(http.MethodGet, StreamBase, "statuses/sample.json", request.Params(), handlers)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
