package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const gutenbergBook = "The Project Gutenberg eBook of Peter Pan\r\n" +
	"*** START OF THE PROJECT GUTENBERG EBOOK PETER PAN ***\r\n" +
	"All children, except one, grow up.\r\n" +
	"*** END OF THE PROJECT GUTENBERG EBOOK PETER PAN ***\r\n" +
	"License text."

func newTestLoader(t *testing.T, cfg Config) *Loader {
	t.Helper()
	loader, err := NewLoader(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return loader
}

func TestTrimGutenberg(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "keeps the book", text: gutenbergBook, want: "\nAll children, except one, grow up.\n"},
		{name: "no markers", text: "plain\r\ntext", want: "plain\ntext"},
		{name: "start marker only", text: "header\n*** START OF IT ***\nbody", want: "\nbody"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, TrimGutenberg(tt.text))
		})
	}
}

func TestLoaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.txt")
	require.NoError(t, os.WriteFile(path, []byte(gutenbergBook), 0o644))

	text, err := newTestLoader(t, Config{TrimGutenberg: true}).Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "\nAll children, except one, grow up.\n", text)

	raw, err := newTestLoader(t, Config{}).Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, gutenbergBook, raw)
}

func TestLoaderReadsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/book.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("Once upon a time."))
	}))
	defer srv.Close()
	loader := newTestLoader(t, Config{})

	text, err := loader.Load(context.Background(), srv.URL+"/book.txt")
	require.NoError(t, err)
	require.Equal(t, "Once upon a time.", text)

	_, err = loader.Load(context.Background(), srv.URL+"/missing.txt")
	require.ErrorContains(t, err, "status=404")
}

func TestLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(big, []byte("0123456789"), 0o644))
	binary := filepath.Join(dir, "binary.bin")
	require.NoError(t, os.WriteFile(binary, []byte{0xff, 0xfe, 0x00}, 0o644))

	tests := []struct {
		name    string
		cfg     Config
		ref     string
		wantErr string
	}{
		{name: "empty reference", ref: "  ", wantErr: "cannot be empty"},
		{name: "missing file", ref: filepath.Join(dir, "nope.txt"), wantErr: "open source file"},
		{name: "too large", cfg: Config{MaxBytes: 4}, ref: big, wantErr: "exceeds 4 bytes"},
		{name: "not text", ref: binary, wantErr: "not valid UTF-8"},
		{name: "object storage off", ref: "s3://books/peter-pan.txt", wantErr: "not configured"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := newTestLoader(t, tt.cfg).Load(context.Background(), tt.ref)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseS3Ref(t *testing.T) {
	bucket, key, err := parseS3Ref("s3://books/classics/peter-pan.txt")
	require.NoError(t, err)
	require.Equal(t, "books", bucket)
	require.Equal(t, "classics/peter-pan.txt", key)

	for _, ref := range []string{"s3://books", "s3:///key", "s3://books/"} {
		_, _, err := parseS3Ref(ref)
		require.Error(t, err, ref)
	}
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "account.r2.cloudflarestorage.com", sanitizeEndpoint(" https://account.r2.cloudflarestorage.com/bucket "))
	require.Equal(t, "localhost:9000", sanitizeEndpoint("http://localhost:9000"))
	require.Empty(t, sanitizeEndpoint(""))
}
