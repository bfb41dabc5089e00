package scryfall

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"
)

const (
	// BulkDataURL lists Scryfall's bulk data files.
	BulkDataURL = "https://api.scryfall.com/bulk-data"

	// DefaultCards is the bulk file with every English printing.
	DefaultCards = "default_cards"

	userAgent = "surveilrise/1.0"
)

// BulkData describes one downloadable bulk file.
type BulkData struct {
	Type        string
	DownloadURI string
	UpdatedAt   string
	Size        int64
}

// FetchBulkData reads the bulk data index at indexURL and returns the entry
// of the given type.
func FetchBulkData(ctx context.Context, client *http.Client, indexURL, kind string) (*BulkData, error) {
	body, err := get(ctx, client, indexURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bulk data index: %w", err)
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid bulk data index: %w", err)
	}

	for _, entry := range v.GetArray("data") {
		if string(entry.GetStringBytes("type")) != kind {
			continue
		}
		bulk := &BulkData{
			Type:        kind,
			DownloadURI: string(entry.GetStringBytes("download_uri")),
			UpdatedAt:   string(entry.GetStringBytes("updated_at")),
			Size:        entry.GetInt64("size"),
		}
		if bulk.DownloadURI == "" {
			return nil, fmt.Errorf("bulk data %s has no download uri", kind)
		}
		return bulk, nil
	}
	return nil, fmt.Errorf("bulk data %s not found in index", kind)
}

// Download fetches uri into path. A path ending in .zst is written
// zstd-compressed. The file is only put in place once it is complete.
func Download(ctx context.Context, client *http.Client, uri, path string) (int64, error) {
	body, err := get(ctx, client, uri)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var enc *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		enc, err = zstd.NewWriter(tmp)
		if err != nil {
			tmp.Close()
			return 0, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = enc
	}

	n, err := io.Copy(w, body)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to download %s: %w", uri, err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			tmp.Close()
			return 0, fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}
	return n, nil
}

// Open opens a bulk file, decompressing .gz and .zst files by extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip file %s: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil

	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd file %s: %w", path, err)
		}
		return &stackedCloser{Reader: dec, closers: []io.Closer{dec.IOReadCloser(), f}}, nil

	default:
		return f, nil
	}
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("request to %s failed: %s", url, resp.Status)
	}
	return resp.Body, nil
}
