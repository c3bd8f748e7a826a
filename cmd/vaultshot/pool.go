package main

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	vaultshot "github.com/alnah/go-vaultshot"
)

// Publisher is the part of vaultshot.Exporter the commands use.
type Publisher interface {
	ExportErr(ctx context.Context, directory string, target vaultshot.RenderTarget, fileName string) (*vaultshot.Dimensions, error)
	Publish(ctx context.Context, doc *html.Node, targets []*html.Node, opts vaultshot.PublishOptions) (*vaultshot.Publication, error)
}

// Compile-time interface implementation check.
var _ Publisher = (*vaultshot.Exporter)(nil)

// Pool abstracts exporter pool operations for testability.
type Pool interface {
	Acquire() Publisher
	Release(Publisher)
	Size() int
	Close() error
}

// poolAdapter exposes a vaultshot.ExporterPool as a Pool.
type poolAdapter struct {
	pool *vaultshot.ExporterPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

// newExporterPool is the production PoolFactory.
func newExporterPool(size int, store vaultshot.Store, opts ...vaultshot.Option) Pool {
	return &poolAdapter{pool: vaultshot.NewExporterPool(size, store, opts...)}
}

// Acquire returns nil once the pool is closed.
func (a *poolAdapter) Acquire() Publisher {
	exp := a.pool.Acquire()
	if exp == nil {
		return nil
	}
	return exp
}

// Release panics when p did not come from this adapter (programmer error).
func (a *poolAdapter) Release(p Publisher) {
	exp, ok := p.(*vaultshot.Exporter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", p))
	}
	a.pool.Release(exp)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

func (a *poolAdapter) Close() error {
	return a.pool.Close()
}
