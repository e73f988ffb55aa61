package internal

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
)

func benchmarkSigner() SignFunc {
	engine := oauth1.NewEngine(oauth1.Credentials{ConsumerKey: "key", ConsumerSecret: "secret"},
		oauth1.WithToken(oauth1.NewAccessToken("token", "token-secret")))
	return func(method, rawURL string, params oauth1.Params, multipart bool) (string, error) {
		if multipart {
			return engine.MediaAuthorizationHeader(method, rawURL, params)
		}
		return engine.AuthorizationHeader(method, rawURL, params)
	}
}

func BenchmarkEngine_Do_WithLogging(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id_str":"123","screen_name":"bench"}`))
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := NewEngine(http.DefaultClient, nil, "bench/1.0", nil, logger)
	sign := benchmarkSigner()
	spec := RequestSpec{URL: server.URL + "/1.1/account/verify_credentials.json", Params: oauth1.Params{"include_entities": false}}

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Do(ctx, spec, sign)
	}
}

func BenchmarkEngine_Do_WithoutLogging(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id_str":"123","screen_name":"bench"}`))
	}))
	defer server.Close()

	e := NewEngine(http.DefaultClient, nil, "bench/1.0", nil, nil)
	sign := benchmarkSigner()
	spec := RequestSpec{URL: server.URL + "/1.1/account/verify_credentials.json", Params: oauth1.Params{"include_entities": false}}

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Do(ctx, spec, sign)
	}
}

func BenchmarkChunkSplitter_Feed(b *testing.B) {
	line := []byte(`{"id_str":"1","text":"hello world","user":{"screen_name":"bench"}}` + "\r\n")
	payload := bytes.Repeat(line, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var s ChunkSplitter
		for off := 0; off < len(payload); off += 100 {
			end := min(off+100, len(payload))
			s.Feed(payload[off:end])
		}
	}
}
