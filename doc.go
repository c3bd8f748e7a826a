// Package vaultshot exports rendered regions of an HTML document as PNG
// snapshots and stores them in a vault.
//
// # Quick Start
//
// Open a vault, create an exporter, export an element and close when done:
//
//	store, err := vault.NewFSStore("/path/to/vault")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	exp := vaultshot.NewExporter(store)
//	defer exp.Close()
//
//	dims := exp.Export(ctx, "attachments/tables", vaultshot.RenderTarget{
//	    Root: table, // an *html.Node attached to a parsed document
//	}, "q3.png")
//	if dims == nil {
//	    // the failure has been logged
//	}
//
// Use ExportErr instead of Export when the caller needs the error.
//
// # Export Pipeline
//
// Every export runs the same steps in order:
//
//  1. Rasterization of the target via headless Chrome (go-rod), at 3x
//  2. Rescale to a fixed width of 1920 pixels, keeping the aspect ratio
//  3. PNG encoding (best compression)
//  4. Persistence: the directory is created when missing, an existing file
//     is overwritten in place, otherwise a new file is created
//
// The target's document is cloned before capture. A RenderTarget may carry
// a Prepare hook that edits the clone (hide elements, patch styles) without
// touching the caller's tree.
//
// # Configuration
//
// Use functional options to customize the exporter:
//
//	exp := vaultshot.NewExporter(store,
//	    vaultshot.WithTimeout(time.Minute),
//	    vaultshot.WithLogger(logger),
//	    vaultshot.WithBrowserBin("/usr/bin/chromium"),
//	)
//
// # Parallel Processing
//
// An Exporter owns one browser and processes one export at a time. For batch
// work, use ExporterPool: each pooled exporter has its own browser, and all of
// them share a PathLocker so two exports never write the same vault path
// concurrently.
//
//	pool := vaultshot.NewExporterPool(vaultshot.ResolvePoolSize(0), store)
//	defer pool.Close()
//
//	exp := pool.Acquire()
//	defer pool.Release(exp)
//
// # Image Dimensions
//
// ProbeImage reads the width and height of an image from a data URI, an
// http(s) URL, a file URL or a local path without decoding pixel data.
package vaultshot
