package application

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yat-Muk/prism-desk/internal/domain/catalog"
	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
	"github.com/Yat-Muk/prism-desk/internal/domain/singbox"
	"github.com/Yat-Muk/prism-desk/internal/infra/blob"
	"github.com/Yat-Muk/prism-desk/internal/pkg/appctx"
	"github.com/Yat-Muk/prism-desk/internal/pkg/errors"
	"github.com/Yat-Muk/prism-desk/internal/pkg/logger"
)

// ProfileGetter 按 ID 獲取 Profile
type ProfileGetter interface {
	Get(id string) (*profile.Profile, error)
}

// CatalogLoader 加載訂閱與規則集快照
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

// KernelService 生成並寫出內核配置文件
type KernelService struct {
	generator singbox.Generator
	profiles  ProfileGetter
	catalog   CatalogLoader
	store     blob.Store
	log       *zap.Logger
}

func NewKernelService(
	generator singbox.Generator,
	profiles ProfileGetter,
	catalog CatalogLoader,
	store blob.Store,
	log *zap.Logger,
) *KernelService {
	if log == nil {
		log = zap.NewNop()
	}
	return &KernelService{
		generator: generator,
		profiles:  profiles,
		catalog:   catalog,
		store:     store,
		log:       log,
	}
}

// Generate 生成指定 Profile 的內核配置
func (s *KernelService) Generate(ctx context.Context, profileID string) (*singbox.Config, error) {
	p, err := s.profiles.Get(profileID)
	if err != nil {
		return nil, errors.Wrap(err, "KERNEL001", "加載 Profile 失敗")
	}

	snapshot, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "KERNEL002", "加載訂閱與規則集失敗")
	}

	cfg, err := s.generator.Generate(ctx, p, singbox.Sources{
		Blobs:         s.store,
		Subscriptions: snapshot,
		Rulesets:      snapshot,
	})
	if err != nil {
		return nil, errors.Wrap(err, "KERNEL003", "生成配置失敗")
	}

	s.log.Info("內核配置已生成",
		zap.String("profile", p.Name),
		zap.String("mode", p.GeneralConfig.Mode),
		logger.SanitizedAPIKey("secret", p.AdvancedConfig.Secret),
		zap.Int("outbounds", len(cfg.Outbounds)),
	)
	return cfg, nil
}

// Marshal 以兩格縮進序列化配置
func Marshal(cfg *singbox.Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化配置失敗: %w", err)
	}
	return data, nil
}

// GenerateConfigFile 生成配置並寫入 data/sing-box/config.json
func (s *KernelService) GenerateConfigFile(ctx context.Context, profileID string) error {
	cfg, err := s.Generate(ctx, profileID)
	if err != nil {
		return err
	}

	data, err := Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "KERNEL004", "序列化配置失敗")
	}

	if err := s.store.Write(ctx, appctx.KernelConfigFile, data); err != nil {
		return errors.Wrap(err, "KERNEL005", "寫入配置文件失敗")
	}

	s.log.Info("✅ 配置文件已寫入", zap.String("path", appctx.KernelConfigFile))
	return nil
}
