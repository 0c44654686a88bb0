package server

import (
	"context"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Download is a file waiting to be fetched once.
type Download struct {
	Name      string
	MediaType string
	Data      []byte
}

// DownloadStore holds one-shot downloads keyed by random token. Entries
// are released on first fetch or when their TTL expires.
type DownloadStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewDownloadStore creates a store whose entries live for ttl.
func NewDownloadStore(ttl time.Duration) *DownloadStore {
	return &DownloadStore{cache: cache.New(ttl, ttl)}
}

// Put stores a download and returns its token.
func (s *DownloadStore) Put(name string, data []byte) string {
	token := uuid.NewString()
	s.cache.SetDefault(token, &Download{
		Name:      name,
		MediaType: mimetype.Detect(data).String(),
		Data:      data,
	})
	return token
}

// Take returns the download for token and releases it.
func (s *DownloadStore) Take(token string) (*Download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(token)
	if !ok {
		return nil, false
	}
	s.cache.Delete(token)
	return v.(*Download), true
}

// Len returns the number of pending downloads.
func (s *DownloadStore) Len() int {
	return s.cache.ItemCount()
}

// Link is a pending download handed to the client.
type Link struct {
	Name  string `json:"name"`
	Token string `json:"token"`
	URL   string `json:"url"`
}

// linkDownloader stores each export download and collects its link.
type linkDownloader struct {
	store *DownloadStore
	links []Link
}

func (d *linkDownloader) Download(ctx context.Context, data []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	token := d.store.Put(name, data)
	d.links = append(d.links, Link{Name: name, Token: token, URL: "/api/downloads/" + token})
	return nil
}
