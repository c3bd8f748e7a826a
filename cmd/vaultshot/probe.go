package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	vaultshot "github.com/alnah/go-vaultshot"
)

// defaultProbeTimeout bounds each source when --timeout is not given.
const defaultProbeTimeout = 30 * time.Second

// probeLine is one --json output record.
type probeLine struct {
	Src    string `json:"src"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

// runProbeCmd prints the size of every source. All sources are probed even
// when one fails; the first failure decides the exit code.
func runProbeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, sources, err := parseProbeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: probe needs at least one source", ErrNoInput)
	}

	timeout := defaultProbeTimeout
	if flags.timeout != "" {
		d, err := time.ParseDuration(flags.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: --timeout %q (must be a positive duration like 10s)", ErrUsage, flags.timeout)
		}
		timeout = d
	}

	enc := json.NewEncoder(env.Stdout)
	var firstErr error
	for _, src := range sources {
		dims, err := probeOne(ctx, env.Probe, src, timeout)
		if err != nil && firstErr == nil {
			firstErr = err
		}

		switch {
		case flags.json:
			line := probeLine{Src: src, Width: dims.Width, Height: dims.Height}
			if err != nil {
				line.Error = err.Error()
			}
			_ = enc.Encode(line)
		case err != nil:
			fmt.Fprintf(env.Stderr, "FAILED %v\n", err)
		default:
			fmt.Fprintf(env.Stdout, "%dx%d\t%s\n", dims.Width, dims.Height, src)
		}
	}
	return firstErr
}

func probeOne(ctx context.Context, probe ProbeFunc, src string, timeout time.Duration) (vaultshot.Dimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return probe(ctx, src)
}
