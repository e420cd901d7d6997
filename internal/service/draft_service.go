package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/pkg/logger"
	"aiedu_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sourceSave     = "save"
	sourceAutosave = "autosave"

	flushTimeout = 30 * time.Second
)

// pendingWrite 等待防抖写入的草稿，key 用于重试时的幂等判断
type pendingWrite struct {
	draft *model.Draft
	key   string
	timer *time.Timer
}

// DraftService 草稿先写本地缓冲再写数据库；自动保存按草稿 ID 防抖
type DraftService struct {
	Repo   *repository.DraftRepository
	Buffer DraftBuffer
	Hub    *RealtimeHub

	delay    time.Duration
	instance string

	mu      sync.Mutex
	pending map[string]*pendingWrite
	seq     map[string]uint64
	closed  bool

	writeMu  sync.Mutex
	inflight sync.WaitGroup
}

func NewDraftService(repo *repository.DraftRepository, buffer DraftBuffer, hub *RealtimeHub, autosaveDelay time.Duration) *DraftService {
	if autosaveDelay <= 0 {
		autosaveDelay = 2 * time.Second
	}
	return &DraftService{
		Repo:     repo,
		Buffer:   buffer,
		Hub:      hub,
		delay:    autosaveDelay,
		instance: uuid.NewString()[:8],
		pending:  make(map[string]*pendingWrite),
		seq:      make(map[string]uint64),
	}
}

// SaveDraft 按 ID 插入或覆盖草稿，每次保存 version 加一。
// expectedVersion 非 0 时与存储中的版本不一致会返回 ErrVersionConflict。
func (s *DraftService) SaveDraft(ctx context.Context, d *model.Draft, expectedVersion int) (*model.Draft, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	// 手动保存的内容比待写入的自动保存更新
	s.cancelPending(d.ID)

	if err := s.Buffer.Put(ctx, d); err != nil {
		logger.Log.Warn("Draft buffer write failed", zap.String("draftId", d.ID), zap.Error(err))
	}

	saved, err := s.write(ctx, d, expectedVersion, "", sourceSave)
	if err != nil {
		return nil, fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return saved, nil
}

func (s *DraftService) write(ctx context.Context, d *model.Draft, expectedVersion int, key, source string) (*model.Draft, error) {
	s.writeMu.Lock()
	saved, err := s.Repo.Upsert(ctx, d, expectedVersion, key)
	s.writeMu.Unlock()

	monitoring.DraftSaveCounter.WithLabelValues(source, monitoring.Result(err)).Inc()
	if err != nil {
		return nil, err
	}

	if err := s.Buffer.Put(ctx, saved); err != nil {
		logger.Log.Warn("Draft buffer refresh failed", zap.String("draftId", saved.ID), zap.Error(err))
	}
	s.Hub.Publish(DraftTopic(saved.ID), "draft_saved", map[string]interface{}{
		"id":        saved.ID,
		"version":   saved.Version,
		"updatedAt": saved.UpdatedAt,
	})
	return saved, nil
}

// GetDraft 优先读数据库，失败时回退到本地缓冲
func (s *DraftService) GetDraft(ctx context.Context, id string) (*model.Draft, error) {
	d, err := s.Repo.FindByID(ctx, id)
	if err == nil {
		return d, nil
	}
	buffered, bufErr := s.Buffer.Get(ctx, id)
	if bufErr == nil {
		logger.Log.Debug("Serving draft from buffer", zap.String("draftId", id), zap.Error(err))
		return buffered, nil
	}
	return nil, err
}

func (s *DraftService) ListDrafts(ctx context.Context, authorID string, status model.DraftStatus) ([]model.Draft, error) {
	return s.Repo.List(ctx, authorID, status)
}

func (s *DraftService) DeleteDraft(ctx context.Context, id string) error {
	s.cancelPending(id)
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.Buffer.Delete(ctx, id); err != nil {
		logger.Log.Warn("Draft buffer delete failed", zap.String("draftId", id), zap.Error(err))
	}
	s.Hub.Publish(DraftTopic(id), "draft_deleted", map[string]string{"id": id})
	return nil
}

// Autosave 立即写入缓冲，并在 delay 之后写数据库；期间的新调用会取消上一个定时器
func (s *DraftService) Autosave(ctx context.Context, d *model.Draft) (*model.Draft, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if err := s.Buffer.Put(ctx, d); err != nil {
		logger.Log.Warn("Draft buffer write failed", zap.String("draftId", d.ID), zap.Error(err))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		saved, err := s.write(ctx, d, 0, "", sourceAutosave)
		if err != nil {
			return nil, fmt.Errorf("autosave draft %s: %w", d.ID, err)
		}
		return saved, nil
	}

	if prev, ok := s.pending[d.ID]; ok {
		prev.timer.Stop()
	}
	s.seq[d.ID]++
	copied := *d
	pw := &pendingWrite{
		draft: &copied,
		key:   fmt.Sprintf("%s:%s:%d", d.ID, s.instance, s.seq[d.ID]),
	}
	id := d.ID
	pw.timer = time.AfterFunc(s.delay, func() { s.flushPending(id, pw) })
	s.pending[id] = pw
	s.mu.Unlock()

	return d, nil
}

// flushPending 定时器到期时写入；若已被新的自动保存替换则放弃
func (s *DraftService) flushPending(id string, pw *pendingWrite) {
	s.mu.Lock()
	if s.pending[id] != pw {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if _, err := s.write(ctx, pw.draft, 0, pw.key, sourceAutosave); err != nil {
		logger.Log.Error("Autosave write failed", zap.String("draftId", id), zap.Error(err))
		s.requeue(id, pw)
	}
}

// requeue 写入失败的草稿重新排队，等待下一次 Flush 或自动保存，沿用原来的幂等 key
func (s *DraftService) requeue(id string, pw *pendingWrite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, newer := s.pending[id]; newer {
		return
	}
	pw.timer = time.AfterFunc(s.delay, func() { s.flushPending(id, pw) })
	if s.closed {
		pw.timer.Stop()
	}
	s.pending[id] = pw
}

func (s *DraftService) cancelPending(id string) {
	s.mu.Lock()
	if pw, ok := s.pending[id]; ok {
		pw.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()
}

func (s *DraftService) takePending(ids ...string) []*pendingWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*pendingWrite
	take := func(id string, pw *pendingWrite) {
		pw.timer.Stop()
		delete(s.pending, id)
		out = append(out, pw)
	}
	if len(ids) == 0 {
		for id, pw := range s.pending {
			take(id, pw)
		}
		return out
	}
	for _, id := range ids {
		if pw, ok := s.pending[id]; ok {
			take(id, pw)
		}
	}
	return out
}

func (s *DraftService) flushWrites(ctx context.Context, writes []*pendingWrite) error {
	var errs []error
	for _, pw := range writes {
		if _, err := s.write(ctx, pw.draft, 0, pw.key, sourceAutosave); err != nil {
			errs = append(errs, fmt.Errorf("flush draft %s: %w", pw.draft.ID, err))
			s.requeue(pw.draft.ID, pw)
		}
	}
	return errors.Join(errs...)
}

// Flush 立即写入所有待保存的草稿
func (s *DraftService) Flush(ctx context.Context) error {
	err := s.flushWrites(ctx, s.takePending())
	s.inflight.Wait()
	return err
}

// FlushDraft 立即写入单个草稿的待保存内容
func (s *DraftService) FlushDraft(ctx context.Context, id string) error {
	err := s.flushWrites(ctx, s.takePending(id))
	s.inflight.Wait()
	return err
}

// Pending 等待写入的草稿数量
func (s *DraftService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close 写入剩余草稿，之后的自动保存改为同步写入
func (s *DraftService) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}
