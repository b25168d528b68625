package service

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkEmbedBatches_Small(b *testing.B) {
	e := &fakeEmbedder{dimension: 768}
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = EmbedBatches(ctx, e, texts, 100)
	}
}

func BenchmarkEmbedBatches_Large(b *testing.B) {
	e := &fakeEmbedder{dimension: 768}
	texts := make([]string, 2000)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = EmbedBatches(ctx, e, texts, 100)
	}
}
