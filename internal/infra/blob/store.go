package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("blob not found")

// Store 以工作目錄相對路徑讀寫文件
type Store interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
}

// FileStore 基於本地文件系統的實現
type FileStore struct {
	baseDir string
	mu      sync.Mutex
	logger  *zap.Logger
}

func NewFileStore(baseDir string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{baseDir: baseDir, logger: logger}
}

func (s *FileStore) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("路徑不能為空")
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("路徑超出工作目錄: %s", path)
	}
	return filepath.Join(s.baseDir, clean), nil
}

// Read 讀取文件，不存在時返回 ErrNotFound
func (s *FileStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("讀取文件 %s 失敗: %w", path, err)
	}
	return data, nil
}

// Write 原子寫入：臨時文件 -> Sync -> Rename
func (s *FileStore) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("創建目錄失敗: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*.tmp")
	if err != nil {
		return fmt.Errorf("創建臨時文件失敗: %w", err)
	}
	tmpName := tmpFile.Name()

	writeSuccess := false
	defer func() {
		if !writeSuccess {
			tmpFile.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("寫入數據失敗: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("同步磁盤失敗: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("關閉臨時文件失敗: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return fmt.Errorf("替換文件失敗: %w", err)
	}
	writeSuccess = true

	s.logger.Debug("文件已寫入", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
