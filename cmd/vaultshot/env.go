package main

import (
	"context"
	"io"
	"os"

	vaultshot "github.com/alnah/go-vaultshot"
)

// PoolFactory builds the exporter pool a command captures with.
type PoolFactory func(size int, store vaultshot.Store, opts ...vaultshot.Option) Pool

// ProbeFunc reads the pixel size of an image source.
type ProbeFunc func(ctx context.Context, src string) (vaultshot.Dimensions, error)

// Environment holds injectable dependencies for testability.
// Includes I/O, the exporter pool and the image probe.
type Environment struct {
	Stdout  io.Writer
	Stderr  io.Writer
	NewPool PoolFactory
	Probe   ProbeFunc
}

// DefaultEnv returns the production environment: real browsers and
// process stdio.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		NewPool: newExporterPool,
		Probe:   vaultshot.ProbeImage,
	}
}
