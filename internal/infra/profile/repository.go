package profile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domainProfile "github.com/Yat-Muk/prism-desk/internal/domain/profile"
	"github.com/Yat-Muk/prism-desk/internal/infra/blob"
	"github.com/Yat-Muk/prism-desk/internal/pkg/appctx"
	"github.com/Yat-Muk/prism-desk/internal/pkg/crypto"
)

// FileRepository 以 YAML 序列保存 Profile 集合
type FileRepository struct {
	store     blob.Store
	path      string
	encryptor *crypto.Encryptor
	logger    *zap.Logger
}

func NewFileRepository(store blob.Store, encryptor *crypto.Encryptor, logger *zap.Logger) *FileRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileRepository{
		store:     store,
		path:      appctx.ProfilesFile,
		encryptor: encryptor,
		logger:    logger,
	}
}

// Load 讀取全部 Profile，文件不存在時返回空集合
func (r *FileRepository) Load(ctx context.Context) ([]*domainProfile.Profile, error) {
	content, err := r.store.Read(ctx, r.path)
	if errors.Is(err, blob.ErrNotFound) {
		r.logger.Info("Profile 文件不存在，使用空集合", zap.String("path", r.path))
		return []*domainProfile.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("讀取 Profile 文件失敗: %w", err)
	}

	var profiles []*domainProfile.Profile
	if err := yaml.Unmarshal(content, &profiles); err != nil {
		return nil, fmt.Errorf("解析 Profile 文件格式失敗: %w", err)
	}

	result := make([]*domainProfile.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p == nil {
			continue
		}
		if r.encryptor != nil {
			if err := p.DecryptSensitiveFields(r.encryptor); err != nil {
				r.logger.Error("Profile 解密失敗", zap.String("id", p.ID), zap.Error(err))
				return nil, fmt.Errorf("解密 Profile %s 失敗: %w", p.ID, err)
			}
		}
		result = append(result, p)
	}

	r.logger.Debug("Profile 已加載", zap.Int("count", len(result)))
	return result, nil
}

// Save 寫入完整集合（原子寫入），不修改傳入的對象
func (r *FileRepository) Save(ctx context.Context, profiles []*domainProfile.Profile) error {
	snapshot := make([]*domainProfile.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p == nil {
			continue
		}
		cp := p.DeepCopy()
		if r.encryptor != nil {
			if err := cp.EncryptSensitiveFields(r.encryptor); err != nil {
				return fmt.Errorf("加密 Profile %s 失敗: %w", p.ID, err)
			}
		}
		snapshot = append(snapshot, cp)
	}

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("序列化 Profile 失敗: %w", err)
	}

	if err := r.store.Write(ctx, r.path, data); err != nil {
		return fmt.Errorf("保存 Profile 文件失敗: %w", err)
	}
	return nil
}
