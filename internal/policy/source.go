package policy

import (
	"context"
	"fmt"
	"os"
)

// Source supplies the current policy document. Implementations must return
// a fresh, fully validated Document or an error; callers treat any error as
// "cannot authorize".
type Source interface {
	FetchPolicy(ctx context.Context) (*Document, error)
}

// FileSource reads the policy document from a local file on every fetch.
type FileSource struct {
	Path string
}

// FetchPolicy reads and parses the file at s.Path.
func (s *FileSource) FetchPolicy(_ context.Context) (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return doc, nil
}

// Static always returns the same document. Useful for tests and for
// documents loaded once at startup.
type Static struct {
	Doc *Document
}

// FetchPolicy returns s.Doc, or an error if no document was set.
func (s Static) FetchPolicy(context.Context) (*Document, error) {
	if s.Doc == nil {
		return nil, fmt.Errorf("policy: no document loaded")
	}
	return s.Doc, nil
}
