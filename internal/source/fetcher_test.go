package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestLocalPath(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"/data/zfa.json", "/data/zfa.json", true},
		{"file:///data/zp.json", "/data/zp.json", true},
		{"relative/zfa.json", "relative/zfa.json", true},
		{"http://purl.obolibrary.org/obo/zfa.json", "", false},
		{"HTTPS://example.org/zp.json", "", false},
	}
	for _, c := range cases {
		got, ok := LocalPath(c.in)
		if ok != c.wantOK || got != filepath.FromSlash(c.want) {
			t.Fatalf("LocalPath(%q) = %q,%v want %q,%v", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestFile_Fetch(t *testing.T) {
	p := filepath.Join(t.TempDir(), "zfa.json")
	if err := os.WriteFile(p, []byte(`{"graphs":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	rc, err := File{}.Fetch(context.Background(), "file://"+filepath.ToSlash(p))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := readAll(t, rc); got != `{"graphs":[]}` {
		t.Fatalf("unexpected body %q", got)
	}

	if _, err := (File{}).Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestHTTP_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/zfa.json":
			_, _ = w.Write([]byte(`{"graphs":[]}`))
		default:
			http.Error(w, "gone fishing", http.StatusNotFound)
		}
	}))
	defer ts.Close()

	h := NewHTTP(0)
	rc, err := h.Fetch(context.Background(), ts.URL+"/zfa.json")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := readAll(t, rc); got != `{"graphs":[]}` {
		t.Fatalf("unexpected body %q", got)
	}

	_, err = h.Fetch(context.Background(), ts.URL+"/missing.json")
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Fatalf("expected HTTP 404 error, got %v", err)
	}
}

func TestNewFetcher_DispatchesOnScheme(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("remote"))
	}))
	defer ts.Close()

	local := filepath.Join(t.TempDir(), "zp.json")
	if err := os.WriteFile(local, []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(Options{CacheDir: t.TempDir()})
	rc, err := f.Fetch(context.Background(), local)
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, rc); got != "local" {
		t.Fatalf("local fetch = %q", got)
	}

	for i := 0; i < 2; i++ {
		rc, err = f.Fetch(context.Background(), ts.URL+"/zfa.json")
		if err != nil {
			t.Fatal(err)
		}
		if got := readAll(t, rc); got != "remote" {
			t.Fatalf("remote fetch = %q", got)
		}
	}
	if hits != 1 {
		t.Fatalf("second remote fetch should come from the disk cache, server hits = %d", hits)
	}
}
