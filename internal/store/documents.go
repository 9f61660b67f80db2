package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dukerupert/foodwheel/internal/apperr"
)

// ErrNoDocument is returned by a Backend when the named document has never
// been saved.
var ErrNoDocument = errors.New("document does not exist")

// Backend persists whole documents by name.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
}

// Documents layers JSON encoding and per-document mutual exclusion over a
// Backend. Every read-modify-write of one document runs under that
// document's lock, so overlapping requests cannot drop each other's writes.
type Documents struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDocuments(b Backend) *Documents {
	return &Documents{
		backend: b,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (d *Documents) acquire(name string) func() {
	d.mu.Lock()
	l, ok := d.locks[name]
	if !ok {
		l = &sync.Mutex{}
		d.locks[name] = l
	}
	d.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (d *Documents) load(ctx context.Context, name string, v any) error {
	data, err := d.backend.Load(ctx, name)
	if err != nil {
		return apperr.Storage("load "+name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Storage("decode "+name, err)
	}
	return nil
}

func (d *Documents) save(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Storage("encode "+name, err)
	}
	if err := d.backend.Save(ctx, name, data); err != nil {
		return apperr.Storage("save "+name, err)
	}
	return nil
}

// Read decodes the named document into v.
func (d *Documents) Read(ctx context.Context, name string, v any) error {
	release := d.acquire(name)
	defer release()
	return d.load(ctx, name, v)
}

// Update decodes the named document into v, runs fn, and saves v back if fn
// succeeds. An error from fn is returned unchanged and nothing is written.
func (d *Documents) Update(ctx context.Context, name string, v any, fn func() error) error {
	release := d.acquire(name)
	defer release()

	if err := d.load(ctx, name, v); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return d.save(ctx, name, v)
}

// Write replaces the named document with v.
func (d *Documents) Write(ctx context.Context, name string, v any) error {
	release := d.acquire(name)
	defer release()
	return d.save(ctx, name, v)
}

// Seed writes v only if the named document does not exist yet.
func (d *Documents) Seed(ctx context.Context, name string, v any) error {
	release := d.acquire(name)
	defer release()

	_, err := d.backend.Load(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNoDocument) {
		return apperr.Storage("probe "+name, err)
	}
	return d.save(ctx, name, v)
}

// Export returns the raw JSON of each named document.
func (d *Documents) Export(ctx context.Context, names ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(names))
	for _, name := range names {
		release := d.acquire(name)
		data, err := d.backend.Load(ctx, name)
		release()
		if err != nil {
			return nil, apperr.Storage("export "+name, err)
		}
		out[name] = json.RawMessage(data)
	}
	return out, nil
}

// Import replaces each document with the given raw JSON. Every payload is
// checked for well-formedness before anything is written.
func (d *Documents) Import(ctx context.Context, docs map[string]json.RawMessage) error {
	for name, data := range docs {
		if !json.Valid(data) {
			return apperr.Validation(fmt.Sprintf("document %q is not valid JSON", name))
		}
	}
	for name, data := range docs {
		release := d.acquire(name)
		err := d.backend.Save(ctx, name, data)
		release()
		if err != nil {
			return apperr.Storage("import "+name, err)
		}
	}
	return nil
}
