// Package memory implements an in-memory design archive.
package memory

import (
	"bytes"
	"context"
	"dnacore/internal/archive"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ archive.Store = (*Store)(nil)

type entry struct {
	info archive.Info
	data []byte
}

// Store implements archive.Store backed by process memory.
type Store struct {
	mu   sync.RWMutex
	objs map[string]entry
}

// New returns an empty in-memory archive.
func New() *Store { return &Store{objs: make(map[string]entry)} }

// Driver returns the archive driver identifier.
func (s *Store) Driver() archive.Driver { return archive.DriverMemory }

// Put stores a new design; it fails if key exists.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts archive.PutOptions) (archive.Info, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return archive.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objs[key]; exists {
		return archive.Info{}, fmt.Errorf("%s: %w", key, archive.ErrExists)
	}
	info := archive.Info{
		Key:          key,
		Size:         int64(len(b)),
		ContentType:  opts.ContentType,
		Metadata:     archive.CloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.objs[key] = entry{info: info, data: b}
	return info, nil
}

// Get returns design metadata and a reader over its content.
func (s *Store) Get(_ context.Context, key string) (archive.Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return archive.Info{}, nil, fmt.Errorf("%s: %w", key, archive.ErrNotFound)
	}
	info := obj.info
	info.Metadata = archive.CloneMetadata(info.Metadata)
	return info, io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Head returns design metadata only.
func (s *Store) Head(_ context.Context, key string) (archive.Info, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return archive.Info{}, fmt.Errorf("%s: %w", key, archive.ErrNotFound)
	}
	info := obj.info
	info.Metadata = archive.CloneMetadata(info.Metadata)
	return info, nil
}

// Delete removes a design, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objs[key]
	delete(s.objs, key)
	return ok, nil
}

// List returns designs whose key starts with prefix, ordered by key.
func (s *Store) List(_ context.Context, prefix string) ([]archive.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]archive.Info, 0, len(s.objs))
	for k, v := range s.objs {
		if strings.HasPrefix(k, prefix) {
			info := v.info
			info.Metadata = archive.CloneMetadata(info.Metadata)
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
