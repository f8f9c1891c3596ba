package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domainCatalog "github.com/Yat-Muk/prism-desk/internal/domain/catalog"
	"github.com/Yat-Muk/prism-desk/internal/infra/blob"
	"github.com/Yat-Muk/prism-desk/internal/pkg/appctx"
)

// FileLoader 從 subscribes.yaml 與 rulesets.yaml 讀取訂閱和規則集列表
type FileLoader struct {
	store  blob.Store
	logger *zap.Logger
}

func NewFileLoader(store blob.Store, logger *zap.Logger) *FileLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileLoader{store: store, logger: logger}
}

// Load 返回當前快照，文件不存在視為空列表
func (l *FileLoader) Load(ctx context.Context) (*domainCatalog.Snapshot, error) {
	var subs []domainCatalog.Subscription
	if err := l.readList(ctx, appctx.SubscribesFile, &subs); err != nil {
		return nil, err
	}

	var rulesets []domainCatalog.Ruleset
	if err := l.readList(ctx, appctx.RulesetsFile, &rulesets); err != nil {
		return nil, err
	}

	l.logger.Debug("訂閱與規則集已加載",
		zap.Int("subscriptions", len(subs)),
		zap.Int("rulesets", len(rulesets)),
	)
	return domainCatalog.NewSnapshot(subs, rulesets), nil
}

func (l *FileLoader) readList(ctx context.Context, path string, out any) error {
	content, err := l.store.Read(ctx, path)
	if errors.Is(err, blob.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("讀取 %s 失敗: %w", path, err)
	}
	if err := yaml.Unmarshal(content, out); err != nil {
		return fmt.Errorf("解析 %s 失敗: %w", path, err)
	}
	return nil
}
