package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
	"github.com/Yat-Muk/prism-desk/internal/pkg/errors"
)

// DefaultDebounce 默認寫入合併窗口
const DefaultDebounce = 100 * time.Millisecond

// pendingMutation 等待落盤的一次修改
type pendingMutation struct {
	undo func()
	done chan error
}

// ProfileService Profile 集合的內存狀態與持久化
// 修改立即作用於內存，寫入在窗口期內合併為一次；
// 寫入失敗時本批修改按逆序撤銷，每個調用方都收到同一個錯誤
type ProfileService struct {
	repo      profile.Repository
	logger    *zap.Logger
	debounced func(f func())

	mu       sync.Mutex
	profiles []*profile.Profile
	pending  []*pendingMutation
}

// NewProfileService 創建 Profile 服務，window <= 0 時使用默認窗口
func NewProfileService(repo profile.Repository, window time.Duration, logger *zap.Logger) *ProfileService {
	if window <= 0 {
		window = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		repo:      repo,
		logger:    logger,
		debounced: debounce.New(window),
		profiles:  []*profile.Profile{},
	}
}

// Setup 從倉庫加載集合
func (s *ProfileService) Setup(ctx context.Context) error {
	profiles, err := s.repo.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "PROFILE001", "加載 Profile 失敗")
	}

	s.mu.Lock()
	s.profiles = profiles
	s.mu.Unlock()

	s.logger.Info("Profile 已加載", zap.Int("count", len(profiles)))
	return nil
}

// List 返回全部 Profile 的副本（保持順序）
func (s *ProfileService) List() []*profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*profile.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		result = append(result, p.DeepCopy())
	}
	return result
}

// Get 按 ID 查找，返回副本
func (s *ProfileService) Get(id string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.profiles[i].DeepCopy(), nil
	}
	return nil, errors.Wrap(errors.ErrProfileNotFound, "PROFILE005", fmt.Sprintf("找不到 Profile: %s", id))
}

// Add 追加 Profile，ID 已存在時拒絕
func (s *ProfileService) Add(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return errors.Wrap(errors.ErrProfileInvalid, "PROFILE002", "Profile 不能為空")
	}
	if err := p.Validate(); err != nil {
		return errors.Wrap(fmt.Errorf("%w: %v", errors.ErrProfileInvalid, err), "PROFILE002", "Profile 驗證失敗")
	}
	cp := p.DeepCopy()

	s.mu.Lock()
	if s.indexOf(cp.ID) >= 0 {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrProfileExists, "PROFILE003", fmt.Sprintf("Profile 已存在: %s", cp.ID))
	}
	s.profiles = append(s.profiles, cp)
	done := s.enqueue(func() { s.remove(cp.ID) })
	s.mu.Unlock()

	return s.wait(ctx, done)
}

// Edit 按 ID 替換 Profile，ID 不存在時什麼也不做
func (s *ProfileService) Edit(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return errors.Wrap(errors.ErrProfileInvalid, "PROFILE002", "Profile 不能為空")
	}
	if err := p.Validate(); err != nil {
		return errors.Wrap(fmt.Errorf("%w: %v", errors.ErrProfileInvalid, err), "PROFILE002", "Profile 驗證失敗")
	}
	cp := p.DeepCopy()

	s.mu.Lock()
	i := s.indexOf(cp.ID)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Debug("編輯不存在的 Profile，忽略", zap.String("id", cp.ID))
		return nil
	}
	old := s.profiles[i]
	s.profiles[i] = cp
	done := s.enqueue(func() {
		if j := s.indexOf(old.ID); j >= 0 {
			s.profiles[j] = old
		}
	})
	s.mu.Unlock()

	return s.wait(ctx, done)
}

// Delete 按 ID 刪除 Profile，ID 不存在時什麼也不做
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Debug("刪除不存在的 Profile，忽略", zap.String("id", id))
		return nil
	}
	old := s.profiles[i]
	s.profiles = append(s.profiles[:i:i], s.profiles[i+1:]...)
	done := s.enqueue(func() { s.insert(i, old) })
	s.mu.Unlock()

	return s.wait(ctx, done)
}

// Flush 立即寫入等待中的修改
func (s *ProfileService) Flush() {
	s.flush()
}

// enqueue 調用方需持有 s.mu
func (s *ProfileService) enqueue(undo func()) chan error {
	m := &pendingMutation{undo: undo, done: make(chan error, 1)}
	s.pending = append(s.pending, m)
	s.debounced(s.flush)
	return m.done
}

// wait 等待所在批次的寫入結果
// ctx 取消只結束等待，修改仍會隨批次寫入
func (s *ProfileService) wait(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ProfileService) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.pending
	s.pending = nil
	if len(batch) == 0 {
		return
	}

	err := s.repo.Save(context.Background(), s.profiles)
	if err != nil {
		for i := len(batch) - 1; i >= 0; i-- {
			batch[i].undo()
		}
		err = errors.Wrap(err, "PROFILE004", "保存 Profile 失敗")
		s.logger.Error("Profile 寫入失敗，已撤銷本批修改",
			zap.Int("mutations", len(batch)),
			zap.Error(err),
		)
	} else {
		s.logger.Debug("Profile 已寫入",
			zap.Int("mutations", len(batch)),
			zap.Int("count", len(s.profiles)),
		)
	}

	for _, m := range batch {
		m.done <- err
	}
}

func (s *ProfileService) indexOf(id string) int {
	for i, p := range s.profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *ProfileService) remove(id string) {
	if i := s.indexOf(id); i >= 0 {
		s.profiles = append(s.profiles[:i:i], s.profiles[i+1:]...)
	}
}

func (s *ProfileService) insert(i int, p *profile.Profile) {
	if i > len(s.profiles) {
		i = len(s.profiles)
	}
	s.profiles = append(s.profiles[:i:i], append([]*profile.Profile{p}, s.profiles[i:]...)...)
}
