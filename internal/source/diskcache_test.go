package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type countingFetcher struct {
	body  string
	err   error
	calls int
}

func (f *countingFetcher) Fetch(_ context.Context, _ string) (io.ReadCloser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

const testURI = "http://purl.obolibrary.org/obo/zfa.json"

func TestDiskCache_HitAfterFirstDownload(t *testing.T) {
	next := &countingFetcher{body: `{"graphs":[]}`}
	c := NewDiskCache(t.TempDir(), next, 0, nil)

	for i := 0; i < 3; i++ {
		rc, err := c.Fetch(context.Background(), testURI)
		if err != nil {
			t.Fatalf("Fetch #%d: %v", i, err)
		}
		if got := readAll(t, rc); got != next.body {
			t.Fatalf("unexpected body %q", got)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected 1 download, got %d", next.calls)
	}

	m, ok := c.Lookup(testURI)
	if !ok {
		t.Fatalf("expected manifest after download")
	}
	if m.SourceURI != testURI || m.Size != int64(len(next.body)) || len(m.SHA256) != 64 {
		t.Fatalf("unexpected manifest %+v", m)
	}
}

func TestDiskCache_ExpiresAfterMaxAge(t *testing.T) {
	next := &countingFetcher{body: "v1"}
	c := NewDiskCache(t.TempDir(), next, time.Hour, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	rc, err := c.Fetch(context.Background(), testURI)
	if err != nil {
		t.Fatal(err)
	}
	_ = rc.Close()

	now = now.Add(30 * time.Minute)
	rc, err = c.Fetch(context.Background(), testURI)
	if err != nil {
		t.Fatal(err)
	}
	_ = rc.Close()
	if next.calls != 1 {
		t.Fatalf("fresh copy should be reused, downloads = %d", next.calls)
	}

	now = now.Add(2 * time.Hour)
	next.body = "v2"
	rc, err = c.Fetch(context.Background(), testURI)
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, rc); got != "v2" {
		t.Fatalf("expired copy should be refreshed, got %q", got)
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 downloads, got %d", next.calls)
	}
}

func TestDiskCache_ServesStaleOnFailure(t *testing.T) {
	next := &countingFetcher{body: "cached"}
	c := NewDiskCache(t.TempDir(), next, time.Nanosecond, nil)

	rc, err := c.Fetch(context.Background(), testURI)
	if err != nil {
		t.Fatal(err)
	}
	_ = rc.Close()

	next.err = errors.New("network down")
	time.Sleep(time.Millisecond)
	rc, err = c.Fetch(context.Background(), testURI)
	if err != nil {
		t.Fatalf("stale copy should be served, got %v", err)
	}
	if got := readAll(t, rc); got != "cached" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestDiskCache_FailureWithoutCopy(t *testing.T) {
	next := &countingFetcher{err: errors.New("network down")}
	c := NewDiskCache(t.TempDir(), next, 0, nil)

	if _, err := c.Fetch(context.Background(), testURI); err == nil {
		t.Fatalf("expected error when nothing is cached")
	}
	if _, ok := c.Lookup(testURI); ok {
		t.Fatalf("failed download must not leave a manifest")
	}
}

func TestDiskCache_RefreshForcesDownload(t *testing.T) {
	next := &countingFetcher{body: "v1"}
	c := NewDiskCache(t.TempDir(), next, 0, nil)

	if _, err := c.Refresh(context.Background(), testURI); err != nil {
		t.Fatal(err)
	}
	next.body = "v22"
	m, err := c.Refresh(context.Background(), testURI)
	if err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 || m.Size != 3 {
		t.Fatalf("expected forced re-download, calls=%d manifest=%+v", next.calls, m)
	}
}

func TestKeyFor_StableAndDistinct(t *testing.T) {
	if KeyFor(testURI) != KeyFor(testURI) {
		t.Fatalf("KeyFor must be deterministic")
	}
	if KeyFor(testURI) == KeyFor("http://purl.obolibrary.org/obo/zp.json") {
		t.Fatalf("distinct URIs should map to distinct keys")
	}
}
