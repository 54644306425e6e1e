package policy

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-logr/logr"
)

const testDocument = `{"home.example.com": {"shared_secret": "s3cr3t", "zone_id": "Z1"}}`

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dyndns.json")
	if err := os.WriteFile(path, []byte(testDocument), 0644); err != nil {
		t.Fatal(err)
	}

	src := &FileSource{Path: path}
	doc, err := src.FetchPolicy(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := doc.Lookup("home.example.com"); !ok {
		t.Error("expected home.example.com in document")
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	src := &FileSource{Path: "/nonexistent/dyndns.json"}
	if _, err := src.FetchPolicy(context.Background()); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestStatic_Empty(t *testing.T) {
	if _, err := (Static{}).FetchPolicy(context.Background()); err == nil {
		t.Fatal("expected error for empty static source, got nil")
	}
}

type fakeS3 struct {
	mu     sync.Mutex
	body   string
	err    error
	inputs []*s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestS3Source(t *testing.T) {
	fake := &fakeS3{body: testDocument}
	src, err := NewS3Source(fake, "my-bucket", "dyndns/dyndns.json", logr.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := src.FetchPolicy(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := doc.Lookup("home.example.com"); !ok {
		t.Error("expected home.example.com in document")
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 GetObject call, got %d", len(fake.inputs))
	}
	if got := aws.ToString(fake.inputs[0].Bucket); got != "my-bucket" {
		t.Errorf("expected bucket 'my-bucket', got %q", got)
	}
	if got := aws.ToString(fake.inputs[0].Key); got != "dyndns/dyndns.json" {
		t.Errorf("expected key 'dyndns/dyndns.json', got %q", got)
	}
}

func TestS3Source_GetError(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	src, err := NewS3Source(fake, "my-bucket", "dyndns/dyndns.json", logr.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.FetchPolicy(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestS3Source_MalformedDocument(t *testing.T) {
	fake := &fakeS3{body: `{"home.example.com": {"zone_id": "Z1"}}`}
	src, err := NewS3Source(fake, "my-bucket", "dyndns/dyndns.json", logr.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.FetchPolicy(context.Background()); err == nil {
		t.Fatal("expected error for document without shared_secret, got nil")
	}
}

func TestNewS3Source_MissingBucket(t *testing.T) {
	if _, err := NewS3Source(&fakeS3{}, "", "dyndns/dyndns.json", logr.Discard()); err == nil {
		t.Fatal("expected error for missing bucket, got nil")
	}
}

// countingSource counts fetches and returns a fixed result.
type countingSource struct {
	mu    sync.Mutex
	calls int
	doc   *Document
	err   error
}

func (c *countingSource) FetchPolicy(context.Context) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.doc, c.err
}

func TestCachedSource_ServesFromCache(t *testing.T) {
	doc, err := Parse([]byte(testDocument))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	next := &countingSource{doc: doc}
	src := NewCachedSource(ctx, next, time.Minute, logr.Discard())

	for i := 0; i < 3; i++ {
		got, err := src.FetchPolicy(ctx)
		if err != nil {
			t.Fatalf("fetch %d: unexpected error: %v", i, err)
		}
		if got.Len() != 1 {
			t.Fatalf("fetch %d: expected 1 record, got %d", i, got.Len())
		}
	}
	if next.calls != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", next.calls)
	}
}

func TestCachedSource_Disabled(t *testing.T) {
	doc, err := Parse([]byte(testDocument))
	if err != nil {
		t.Fatal(err)
	}
	next := &countingSource{doc: doc}
	src := NewCachedSource(context.Background(), next, 0, logr.Discard())

	for i := 0; i < 3; i++ {
		if _, err := src.FetchPolicy(context.Background()); err != nil {
			t.Fatalf("fetch %d: unexpected error: %v", i, err)
		}
	}
	if next.calls != 3 {
		t.Errorf("expected 3 upstream fetches with caching disabled, got %d", next.calls)
	}
}

func TestCachedSource_ErrorNotCached(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	next := &countingSource{err: errors.New("bucket unreachable")}
	src := NewCachedSource(ctx, next, time.Minute, logr.Discard())

	for i := 0; i < 2; i++ {
		if _, err := src.FetchPolicy(ctx); err == nil {
			t.Fatalf("fetch %d: expected error, got nil", i)
		}
	}
	if next.calls != 2 {
		t.Errorf("expected failed fetches to be retried upstream, got %d calls", next.calls)
	}
}
