package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yanqian/booksum/internal/domain/summarizer"
)

const s3Scheme = "s3://"

// Config controls how source references are resolved.
type Config struct {
	// TrimGutenberg strips Project Gutenberg headers and licence boilerplate.
	TrimGutenberg bool
	MaxBytes      int64
	HTTPTimeout   time.Duration
	S3            S3Config
}

// Loader resolves local paths, http(s) URLs and s3://bucket/key references.
type Loader struct {
	cfg        Config
	httpClient *http.Client
	objects    *objectReader
	logger     *slog.Logger
}

// NewLoader builds a loader. Object storage is only available when cfg.S3 has
// an endpoint.
func NewLoader(cfg Config, logger *slog.Logger) (*Loader, error) {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	loader := &Loader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "source.loader"),
	}
	if cfg.S3.Enabled() {
		objects, err := newObjectReader(cfg.S3)
		if err != nil {
			return nil, err
		}
		loader.objects = objects
	}
	return loader, nil
}

// Load reads ref and returns it as text.
func (l *Loader) Load(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("source reference cannot be empty")
	}

	var (
		payload []byte
		err     error
	)
	switch {
	case strings.HasPrefix(ref, s3Scheme):
		payload, err = l.loadObject(ctx, ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		payload, err = l.loadURL(ctx, ref)
	default:
		payload, err = l.loadFile(ref)
	}
	if err != nil {
		return "", err
	}
	if !utf8.Valid(payload) {
		return "", fmt.Errorf("source %s is not valid UTF-8 text", ref)
	}

	text := string(payload)
	if l.cfg.TrimGutenberg {
		text = TrimGutenberg(text)
	}
	l.logger.Info("source loaded", "ref", ref, "bytes", len(payload), "chars", utf8.RuneCountInString(text))
	return text, nil
}

func (l *Loader) loadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()
	payload, err := readLimited(f, l.cfg.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	return payload, nil
}

func (l *Loader) loadURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build source request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("source request error: status=%d body=%s", resp.StatusCode, string(payload))
	}
	payload, err := readLimited(resp.Body, l.cfg.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read source response: %w", err)
	}
	return payload, nil
}

func (l *Loader) loadObject(ctx context.Context, ref string) ([]byte, error) {
	if l.objects == nil {
		return nil, errors.New("object storage is not configured")
	}
	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return nil, err
	}
	payload, err := l.objects.read(ctx, bucket, key, l.cfg.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", ref, err)
	}
	return payload, nil
}

var _ summarizer.SourceLoader = (*Loader)(nil)
