package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DraftBuffer 草稿的本地缓冲，远端写入失败时仍可读取最近一次内容
type DraftBuffer interface {
	Put(ctx context.Context, d *model.Draft) error
	Get(ctx context.Context, id string) (*model.Draft, error)
	Delete(ctx context.Context, id string) error
}

func NewDraftBuffer(rdb *redis.Client, ttl time.Duration) DraftBuffer {
	if rdb != nil {
		return &RedisDraftBuffer{Redis: rdb, TTL: ttl}
	}
	return NewMemoryDraftBuffer(ttl)
}

type RedisDraftBuffer struct {
	Redis *redis.Client
	TTL   time.Duration
}

func draftBufferKey(id string) string {
	return "draft:buffer:" + id
}

func (b *RedisDraftBuffer) Put(ctx context.Context, d *model.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return b.Redis.Set(ctx, draftBufferKey(d.ID), data, b.TTL).Err()
}

func (b *RedisDraftBuffer) Get(ctx context.Context, id string) (*model.Draft, error) {
	data, err := b.Redis.Get(ctx, draftBufferKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	var d model.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (b *RedisDraftBuffer) Delete(ctx context.Context, id string) error {
	return b.Redis.Del(ctx, draftBufferKey(id)).Err()
}

type bufferedDraft struct {
	data    []byte
	expires time.Time
}

// MemoryDraftBuffer 未启用 Redis 时的进程内缓冲，存储序列化后的副本
type MemoryDraftBuffer struct {
	mu     sync.RWMutex
	ttl    time.Duration
	drafts map[string]bufferedDraft
}

func NewMemoryDraftBuffer(ttl time.Duration) *MemoryDraftBuffer {
	return &MemoryDraftBuffer{ttl: ttl, drafts: make(map[string]bufferedDraft)}
}

func (b *MemoryDraftBuffer) Put(ctx context.Context, d *model.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	var expires time.Time
	if b.ttl > 0 {
		expires = time.Now().Add(b.ttl)
	}
	b.mu.Lock()
	b.drafts[d.ID] = bufferedDraft{data: data, expires: expires}
	b.mu.Unlock()
	return nil
}

func (b *MemoryDraftBuffer) Get(ctx context.Context, id string) (*model.Draft, error) {
	b.mu.RLock()
	entry, ok := b.drafts[id]
	b.mu.RUnlock()
	if !ok || (!entry.expires.IsZero() && time.Now().After(entry.expires)) {
		return nil, util.ErrDraftNotFound
	}
	var d model.Draft
	if err := json.Unmarshal(entry.data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (b *MemoryDraftBuffer) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	delete(b.drafts, id)
	b.mu.Unlock()
	return nil
}
