package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

// generateCommentPage builds a comment page payload of n comments.
func generateCommentPage(n int) json.RawMessage {
	comments := make([]string, n)
	for i := range n {
		comments[i] = fmt.Sprintf(`{"id":"c%d","author":"user%d","text":"great video, thanks for sharing #%d","likes":%d}`,
			i, i%17, i, i*3)
	}
	return json.RawMessage("[" + strings.Join(comments, ",") + "]")
}

// BenchmarkCodec measures encode+decode of a 100-comment page.
func BenchmarkCodec(b *testing.B) {
	entry := NewCacheEntry("dQw4w9WgXcQ", generateCommentPage(100), 1800, time.Now())

	for _, compress := range []bool{false, true} {
		codec := NewJSONCodec(compress)
		b.Run(fmt.Sprintf("compress=%t", compress), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				data, err := codec.Encode(entry)
				if err != nil {
					b.Fatal(err)
				}
				if _, err = codec.Decode(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkManagerGet measures a cache hit through the file backend.
func BenchmarkManagerGet(b *testing.B) {
	m, err := New(Options{Directory: b.TempDir(), Enabled: true, Backend: BackendFile})
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = m.Close() }()

	ctx := context.Background()
	if _, err = m.Set(ctx, NamespaceComments, "thread", generateCommentPage(50)); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, hit, getErr := m.Get(ctx, NamespaceComments, "thread"); getErr != nil || !hit {
			b.Fatalf("expected hit, got hit=%v err=%v", hit, getErr)
		}
	}
}
