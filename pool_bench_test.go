//go:build bench

package vaultshot

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/alnah/go-vaultshot/internal/dom"
	"github.com/alnah/go-vaultshot/internal/vault"
)

// BenchmarkResolvePoolSize benchmarks pool size calculation.
func BenchmarkResolvePoolSize(b *testing.B) {
	workers := []int{0, 1, 2, 4, 8}

	for _, w := range workers {
		b.Run(workerName(w), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				result := ResolvePoolSize(w)
				_ = result
			}
		})
	}
}

func workerName(w int) string {
	if w == 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", w)
}

// BenchmarkExporterPoolAcquireRelease benchmarks pool acquire/release cycle.
// Uses a mock pool to avoid browser overhead.
func BenchmarkExporterPoolAcquireRelease(b *testing.B) {
	sizes := []int{1, 2, 4, 8}

	for _, size := range sizes {
		b.Run(poolSizeName(size), func(b *testing.B) {
			pool := NewExporterPool(size, vault.NewMemStore())
			// Pre-warm the pool by acquiring and releasing all slots
			exporters := make([]*Exporter, size)
			for i := 0; i < size; i++ {
				exporters[i] = pool.Acquire()
			}
			for i := 0; i < size; i++ {
				pool.Release(exporters[i])
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				exp := pool.Acquire()
				pool.Release(exp)
			}

			b.StopTimer()
			pool.Close()
		})
	}
}

func poolSizeName(size int) string {
	return fmt.Sprintf("size_%d", size)
}

// BenchmarkExporterPoolContention benchmarks pool under contention.
// Simulates multiple goroutines competing for pool resources.
func BenchmarkExporterPoolContention(b *testing.B) {
	poolSize := 4
	goroutines := []int{4, 8, 16, 32}

	for _, g := range goroutines {
		b.Run(goroutineName(g), func(b *testing.B) {
			pool := NewExporterPool(poolSize, vault.NewMemStore())
			// Pre-warm
			exporters := make([]*Exporter, poolSize)
			for i := 0; i < poolSize; i++ {
				exporters[i] = pool.Acquire()
			}
			for i := 0; i < poolSize; i++ {
				pool.Release(exporters[i])
			}

			b.ReportAllocs()
			b.ResetTimer()

			var wg sync.WaitGroup
			opsPerGoroutine := b.N / g
			if opsPerGoroutine < 1 {
				opsPerGoroutine = 1
			}

			for i := 0; i < g; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < opsPerGoroutine; j++ {
						exp := pool.Acquire()
						// Simulate minimal work
						runtime.Gosched()
						pool.Release(exp)
					}
				}()
			}
			wg.Wait()

			b.StopTimer()
			pool.Close()
		})
	}
}

func goroutineName(g int) string {
	return fmt.Sprintf("goroutines_%d", g)
}

// BenchmarkExport benchmarks the pipeline after rasterization: rescale to
// 1920 wide, PNG encoding and an in-memory vault write.
func BenchmarkExport(b *testing.B) {
	sizes := []struct {
		name string
		w, h int
	}{
		{"table_3x", 1200, 600},
		{"code_3x", 2400, 3000},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			exp := NewExporter(vault.NewMemStore(), withRasterizer(&mockRasterizer{img: solidImage(size.w, size.h, red)}))
			defer exp.Close()
			target := RenderTarget{Root: benchTarget(b)}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := exp.ExportErr(context.Background(), "bench", target, "snap.png"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func benchTarget(b *testing.B) *html.Node {
	b.Helper()

	doc, err := dom.Parse(`<table><tr><td>1</td></tr></table>`)
	if err != nil {
		b.Fatal(err)
	}
	return dom.First(doc, "table")
}
