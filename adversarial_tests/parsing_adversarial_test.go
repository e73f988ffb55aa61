package adversarial_tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	"github.com/jamesprial/go-twitter-api-wrapper/adversarial_tests/helpers"
	"github.com/jamesprial/go-twitter-api-wrapper/internal"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
	"github.com/jamesprial/go-twitter-api-wrapper/test_helpers"
)

// streamFixture is a stream body mixing documents, keep-alives and garbage
type streamFixture struct {
	body    string
	docs    []string
	garbage int
}

func buildStreamFixture(f *helpers.Fuzzer, n int) streamFixture {
	var (
		sb      strings.Builder
		fixture streamFixture
	)
	for i := 0; i < n; i++ {
		doc := fmt.Sprintf(`{"id_str":"%d","text":%q}`, i+1, f.GenerateRandomString(1+i%40, false))
		fixture.docs = append(fixture.docs, doc)
		sb.WriteString(doc + f.LineTerminator())

		switch i % 5 {
		case 1:
			// Keep-alive
			sb.WriteString(f.LineTerminator())
		case 3:
			sb.Write(f.GarbageLine())
			sb.WriteString(f.LineTerminator())
			fixture.garbage++
		}
	}
	fixture.body = sb.String()
	return fixture
}

// TestChunkSplitter_RandomIncrements feeds the same body cut at random
// offsets and expects the same documents every time
func TestChunkSplitter_RandomIncrements(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			f := helpers.NewFuzzer(seed)
			fixture := buildStreamFixture(f, 50)

			dropped := 0
			splitter := internal.ChunkSplitter{
				Dropped: func(err *twerrors.DecodingError) { dropped++ },
			}

			var got []string
			for _, chunk := range f.SplitRandomly([]byte(fixture.body), 64) {
				for _, doc := range splitter.Feed(chunk) {
					got = append(got, string(doc))
				}
			}

			if splitter.Buffered() != 0 {
				t.Errorf("expected empty buffer after complete lines, got %d bytes", splitter.Buffered())
			}
			if dropped != fixture.garbage {
				t.Errorf("expected %d dropped lines, got %d", fixture.garbage, dropped)
			}
			if len(got) != len(fixture.docs) {
				t.Fatalf("expected %d documents, got %d", len(fixture.docs), len(got))
			}
			for i := range got {
				if got[i] != fixture.docs[i] {
					t.Errorf("document %d: expected %s, got %s", i, fixture.docs[i], got[i])
				}
			}
		})
	}
}

// TestChunkSplitter_LargeDocumentByteByByte delivers a large document one
// byte at a time
func TestChunkSplitter_LargeDocumentByteByByte(t *testing.T) {
	doc := fmt.Sprintf(`{"id_str":"1","text":%q}`, strings.Repeat("x", 256*1024))
	body := []byte(doc + "\r\n")

	var splitter internal.ChunkSplitter
	var got []json.RawMessage
	for i := range body {
		got = append(got, splitter.Feed(body[i:i+1])...)
		if i < len(body)-2 && len(got) > 0 {
			t.Fatalf("document emitted early at byte %d", i)
		}
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 document, got %d", len(got))
	}
	if string(got[0]) != doc {
		t.Error("reassembled document differs from the original")
	}
}

// TestChunkSplitter_HostileLines checks lines that must never produce a
// document
func TestChunkSplitter_HostileLines(t *testing.T) {
	lines := []string{
		"\x00",
		"\x00\x01\x02",
		"\r",
		"\t \t",
		`{"a":1}{"b":2}`,
		`{"a":1`,
		`[1,2`,
		`"unterminated`,
		`{"a":"\xff"`,
		"{\"a\":\"line\rbreak\"",
		strings.Repeat("{", 10000),
		strings.Repeat("[", 10000) + strings.Repeat("]", 9999),
		`{"a":NaN}`,
		`{'a':1}`,
		"\xef\xbb\xbf",
	}

	for _, line := range lines {
		name := line
		if len(name) > 20 {
			name = name[:20]
		}
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			var splitter internal.ChunkSplitter
			docs := splitter.Feed([]byte(line + "\r\n"))
			if len(docs) != 0 {
				t.Errorf("expected no documents, got %q", docs)
			}
			if doc, ok := splitter.Flush(); ok {
				t.Errorf("expected nothing to flush, got %s", doc)
			}
		})
	}
}

// TestChunkSplitter_ScalarDocuments accepts any valid JSON value, not just
// objects
func TestChunkSplitter_ScalarDocuments(t *testing.T) {
	var splitter internal.ChunkSplitter
	docs := splitter.Feed([]byte("123\r\nnull\r\n\"text\"\r\n[]\r\n"))

	want := []string{"123", "null", `"text"`, "[]"}
	if len(docs) != len(want) {
		t.Fatalf("expected %d documents, got %d", len(want), len(docs))
	}
	for i := range want {
		if string(docs[i]) != want[i] {
			t.Errorf("document %d: expected %s, got %s", i, want[i], docs[i])
		}
	}
}

// TestFilterStream_RandomFlushes sends a fixture through a real HTTP stream,
// flushed at random offsets
func TestFilterStream_RandomFlushes(t *testing.T) {
	f := helpers.NewFuzzer(42)
	fixture := buildStreamFixture(f, 200)
	chunks := f.SplitRandomly([]byte(fixture.body), 512)

	tc := test_helpers.NewTestClient(t, nil)
	tc.MockServer().SetHandler("/1.1/statuses/filter.json", func(w http.ResponseWriter, r *http.Request) {
		flusher, _ := w.(http.Flusher)
		for _, chunk := range chunks {
			_, _ = w.Write(chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
	})

	var (
		mu  sync.Mutex
		got []string
	)
	ended := make(chan error, 1)
	_, err := tc.FilterStream(context.Background(), &types.FilterStreamRequest{Track: []string{"golang"}}, twitter.StreamHandlers{
		OnMessage: func(doc json.RawMessage) {
			mu.Lock()
			got = append(got, string(doc))
			mu.Unlock()
		},
		OnEnd: func(err error) { ended <- err },
	})
	if err != nil {
		t.Fatalf("FilterStream: %v", err)
	}

	select {
	case err := <-ended:
		if err != nil {
			t.Fatalf("stream ended with error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("stream did not end")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(fixture.docs) {
		t.Fatalf("expected %d documents, got %d", len(fixture.docs), len(got))
	}
	for i := range got {
		if got[i] != fixture.docs[i] {
			t.Fatalf("document %d: expected %s, got %s", i, fixture.docs[i], got[i])
		}
	}
}
