package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// vaultFlags selects the vault backend.
type vaultFlags struct {
	path     string
	backend  string
	database string
}

// captureFlags holds what gets captured and how.
type captureFlags struct {
	directory string
	elements  []string
	style     []string // property=value pairs
	theme     string
	assetsDir string
	timeout   string
}

// browserFlags holds headless Chrome options.
type browserFlags struct {
	bin       string
	noSandbox bool
	trace     bool
}

// publishFlags holds published document options.
type publishFlags struct {
	enabled     bool
	outDir      string
	title       string
	imageBase   string
	probeImages bool
}

// snapFlags holds all flags for the snap command.
type snapFlags struct {
	common  commonFlags
	workers int
	vault   vaultFlags
	capture captureFlags
	browser browserFlags
	publish publishFlags
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common  commonFlags
	addr    string
	workers int
	vault   vaultFlags
	capture captureFlags
	browser browserFlags
}

// probeFlags holds all flags for the probe command.
type probeFlags struct {
	json    bool
	timeout string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addVaultFlags adds vault backend flags to a FlagSet.
func addVaultFlags(fs *flag.FlagSet, f *vaultFlags) {
	fs.StringVar(&f.path, "vault", "", "vault root directory")
	fs.StringVar(&f.backend, "backend", "", "vault backend: fs, sqlite")
	fs.StringVar(&f.database, "database", "", "sqlite vault file")
}

// addCaptureFlags adds capture flags to a FlagSet.
func addCaptureFlags(fs *flag.FlagSet, f *captureFlags) {
	fs.StringVarP(&f.directory, "dir", "d", "", "vault folder for snapshots")
	fs.StringSliceVarP(&f.elements, "elements", "e", nil, "tags to capture (default: table,pre)")
	fs.StringArrayVar(&f.style, "style", nil, "style patch property=value (repeatable)")
	fs.StringVar(&f.theme, "theme", "", "theme name, .css path, or none")
	fs.StringVar(&f.assetsDir, "assets-dir", "", "custom theme directory")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "capture timeout (e.g., 30s, 2m)")
}

// addBrowserFlags adds browser flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringVar(&f.bin, "browser-bin", "", "Chrome binary path")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox")
	fs.BoolVar(&f.trace, "trace", false, "log browser protocol traffic")
}

// addPublishFlags adds published document flags to a FlagSet.
func addPublishFlags(fs *flag.FlagSet, f *publishFlags) {
	fs.BoolVarP(&f.enabled, "publish", "p", false, "write a document with snapshots in place")
	fs.StringVarP(&f.outDir, "output", "o", "", "published document directory (implies --publish)")
	fs.StringVar(&f.title, "title", "", "published document heading (default: note name)")
	fs.StringVar(&f.imageBase, "image-base", "", "URL prefix of snapshot images")
	fs.BoolVar(&f.probeImages, "probe-images", false, "fill missing image sizes")
}

// newFlagSet returns a FlagSet that reports to w and prints usage on error.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	fs.SortFlags = false
	return fs
}

// parseSnapFlags parses snap command flags and returns positional args.
func parseSnapFlags(args []string, w io.Writer) (*snapFlags, []string, error) {
	f := &snapFlags{}
	fs := newFlagSet("snap", w, printSnapUsage)

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	addCommonFlags(fs, &f.common)
	addVaultFlags(fs, &f.vault)
	addCaptureFlags(fs, &f.capture)
	addBrowserFlags(fs, &f.browser)
	addPublishFlags(fs, &f.publish)

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", w, printServeUsage)

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default: 127.0.0.1:8420)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	addCommonFlags(fs, &f.common)
	addVaultFlags(fs, &f.vault)
	addCaptureFlags(fs, &f.capture)
	addBrowserFlags(fs, &f.browser)

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	return f, nil
}

// parseProbeFlags parses probe command flags and returns the sources.
func parseProbeFlags(args []string, w io.Writer) (*probeFlags, []string, error) {
	f := &probeFlags{}
	fs := newFlagSet("probe", w, printProbeUsage)

	fs.BoolVar(&f.json, "json", false, "print JSON lines")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "timeout per source (e.g., 10s)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseStylePairs turns repeated property=value flags into a map.
func parseStylePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		prop, value, ok := strings.Cut(pair, "=")
		prop, value = strings.TrimSpace(prop), strings.TrimSpace(value)
		if !ok || prop == "" {
			return nil, fmt.Errorf("%w: --style %q (want property=value)", ErrUsage, pair)
		}
		out[prop] = value
	}
	return out, nil
}
