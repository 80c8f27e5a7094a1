package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File keeps every key in one JSON document on disk. Each Set rewrites the
// document through a temporary file and a rename, so readers never observe a
// partially written state.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a store backed by path, creating its directory if needed.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &File{path: path}, nil
}

// Path returns the location of the backing document.
func (f *File) Path() string { return f.path }

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	value, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readForWrite()
	if err != nil {
		return err
	}
	doc[key] = append([]byte(nil), value...)
	return f.write(doc)
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readForWrite()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.write(doc)
}

func (f *File) Close() error { return nil }

// readForWrite is read, except that an undecodable document is moved aside to
// <path>.corrupt and replaced by an empty one, so writes always go through.
func (f *File) readForWrite() (map[string][]byte, error) {
	doc, err := f.read()
	if !errors.Is(err, ErrCorrupt) {
		return doc, err
	}
	if err := os.Rename(f.path, f.path+".corrupt"); err != nil {
		return nil, fmt.Errorf("failed to move aside corrupt %s: %w", f.path, err)
	}
	return make(map[string][]byte), nil
}

// read loads the document; values are stored base64 encoded so arbitrary bytes survive.
func (f *File) read() (map[string][]byte, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string][]byte), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if len(raw) == 0 {
		return make(map[string][]byte), nil
	}

	var encoded map[string]string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	doc := make(map[string][]byte, len(encoded))
	for k, v := range encoded {
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q in %s: %v", ErrCorrupt, k, f.path, err)
		}
		doc[k] = b
	}
	return doc, nil
}

func (f *File) write(doc map[string][]byte) error {
	encoded := make(map[string]string, len(doc))
	for k, v := range doc {
		encoded[k] = base64.StdEncoding.EncodeToString(v)
	}
	raw, err := json.MarshalIndent(encoded, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
