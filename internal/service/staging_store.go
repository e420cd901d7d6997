package service

import (
	"aiedu_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// StagedMedia 编辑器上传但尚未发布的媒体，以 blob:<id> 引用
type StagedMedia struct {
	ID          string    `json:"id"`
	DraftID     string    `json:"draftId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Data        []byte    `json:"data"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (m *StagedMedia) BlobURL() string {
	return util.BlobScheme + m.ID
}

type StagingStore interface {
	Put(ctx context.Context, m *StagedMedia) error
	Get(ctx context.Context, id string) (*StagedMedia, error)
	Delete(ctx context.Context, id string) error
}

func NewStagingStore(rdb *redis.Client, ttl time.Duration) StagingStore {
	if rdb != nil {
		return &RedisStagingStore{Redis: rdb, TTL: ttl}
	}
	return NewMemoryStagingStore(ttl)
}

type RedisStagingStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func stagingKey(id string) string {
	return "draft:staged:" + id
}

func (s *RedisStagingStore) Put(ctx context.Context, m *StagedMedia) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, stagingKey(m.ID), data, s.TTL).Err()
}

func (s *RedisStagingStore) Get(ctx context.Context, id string) (*StagedMedia, error) {
	data, err := s.Redis.Get(ctx, stagingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrStagedMediaGone
	}
	if err != nil {
		return nil, err
	}
	var m StagedMedia
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *RedisStagingStore) Delete(ctx context.Context, id string) error {
	return s.Redis.Del(ctx, stagingKey(id)).Err()
}

type MemoryStagingStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*StagedMedia
}

func NewMemoryStagingStore(ttl time.Duration) *MemoryStagingStore {
	return &MemoryStagingStore{ttl: ttl, items: make(map[string]*StagedMedia)}
}

func (s *MemoryStagingStore) expired(m *StagedMedia) bool {
	return s.ttl > 0 && time.Since(m.CreatedAt) > s.ttl
}

func (s *MemoryStagingStore) Put(ctx context.Context, m *StagedMedia) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if s.expired(item) {
			delete(s.items, id)
		}
	}
	s.items[m.ID] = m
	return nil
}

func (s *MemoryStagingStore) Get(ctx context.Context, id string) (*StagedMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[id]
	if !ok || s.expired(m) {
		return nil, util.ErrStagedMediaGone
	}
	return m, nil
}

func (s *MemoryStagingStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}
