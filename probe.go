package vaultshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	// Registered image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/alnah/go-vaultshot/internal/fileutil"
)

var (
	errEmptySource    = errors.New("empty source")
	errMalformedData  = errors.New("malformed data URI")
	errInvalidSize    = errors.New("image has no size")
	errUnexpectedCode = errors.New("unexpected HTTP status")
)

// probeClient fetches remote images. It has no timeout of its own: the
// caller's context bounds the request.
var probeClient = &http.Client{}

// ProbeImage returns the natural size of the image at src. src may be a data
// URI, an http(s) URL, a file URL or a local path. Only the image header is
// decoded. Supported formats: PNG, JPEG, GIF, WebP, BMP.
//
// Every failure is returned as a *ResourceLoadError.
func ProbeImage(ctx context.Context, src string) (Dimensions, error) {
	dims, err := probe(ctx, src)
	if err != nil {
		return Dimensions{}, &ResourceLoadError{Src: src, Err: err}
	}
	return dims, nil
}

func probe(ctx context.Context, src string) (Dimensions, error) {
	if err := ctx.Err(); err != nil {
		return Dimensions{}, err
	}

	src = strings.TrimSpace(src)
	if src == "" {
		return Dimensions{}, errEmptySource
	}

	rc, err := openSource(ctx, src)
	if err != nil {
		return Dimensions{}, err
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return Dimensions{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: %dx%d", errInvalidSize, cfg.Width, cfg.Height)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// openSource dispatches on the kind of src.
func openSource(ctx context.Context, src string) (io.ReadCloser, error) {
	switch {
	case fileutil.IsDataURI(src):
		data, err := decodeDataURI(src)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil

	case fileutil.IsURL(src):
		return fetch(ctx, src)

	case strings.HasPrefix(strings.ToLower(src), "file:"):
		path, err := fileutil.FilePathFromURL(src)
		if err != nil {
			return nil, err
		}
		return os.Open(path) // #nosec G304 -- caller chooses which image to probe

	default:
		return os.Open(src) // #nosec G304 -- caller chooses which image to probe
	}
}

// fetch opens the body of a GET request to rawURL.
func fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := probeClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", errUnexpectedCode, resp.Status)
	}
	return resp.Body, nil
}

// decodeDataURI returns the payload of a data URI
// ("data:[<mediatype>][;base64],<data>").
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing comma", errMalformedData)
	}

	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		payload = strings.Join(strings.Fields(payload), "")
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedData, err)
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedData, err)
	}
	return []byte(data), nil
}
