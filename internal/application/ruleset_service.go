package application

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Yat-Muk/prism-desk/internal/domain/validator"
	"github.com/Yat-Muk/prism-desk/internal/infra/blob"
	"github.com/Yat-Muk/prism-desk/internal/pkg/appctx"
	"github.com/Yat-Muk/prism-desk/internal/pkg/errors"
)

// 本地規則集類別
const (
	RulesetDirect = "direct"
	RulesetReject = "reject"
	RulesetProxy  = "proxy"
)

type localRuleset struct {
	Payload []string `yaml:"payload"`
}

// RulesetService 編輯 data/rulesets 下的本地規則集
type RulesetService struct {
	store blob.Store
	log   *zap.Logger
}

func NewRulesetService(store blob.Store, log *zap.Logger) *RulesetService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RulesetService{store: store, log: log}
}

// AddToRuleSet 將條目插入到規則集頭部並去重
func (s *RulesetService) AddToRuleSet(ctx context.Context, kind, payload string) error {
	switch kind {
	case RulesetDirect, RulesetReject, RulesetProxy:
	default:
		return errors.Wrap(errors.ErrRulesetKindInvalid, "RULESET001", fmt.Sprintf("未知的規則集: %s", kind))
	}

	payload, err := validator.NormalizePayload(payload)
	if err != nil {
		return errors.Wrap(err, "RULESET001", "規則內容無效")
	}

	file := path.Join(appctx.LocalRulesetDir, kind+".yaml")
	items, err := s.Read(ctx, kind)
	if err != nil {
		return err
	}

	merged := make([]string, 0, len(items)+1)
	seen := make(map[string]struct{}, len(items)+1)
	for _, item := range append([]string{payload}, items...) {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		merged = append(merged, item)
	}

	data, err := yaml.Marshal(localRuleset{Payload: merged})
	if err != nil {
		return fmt.Errorf("序列化規則集失敗: %w", err)
	}
	if err := s.store.Write(ctx, file, data); err != nil {
		return errors.Wrap(err, "RULESET003", "寫入規則集失敗")
	}

	s.log.Info("規則已加入本地規則集", zap.String("ruleset", kind), zap.String("payload", payload))
	return nil
}

// Read 讀取規則集條目，文件不存在時返回空列表
func (s *RulesetService) Read(ctx context.Context, kind string) ([]string, error) {
	file := path.Join(appctx.LocalRulesetDir, kind+".yaml")
	content, err := s.store.Read(ctx, file)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "RULESET002", "讀取規則集失敗")
	}

	var rs localRuleset
	if err := yaml.Unmarshal(content, &rs); err != nil {
		return nil, errors.Wrap(err, "RULESET002", "解析規則集失敗")
	}
	return rs.Payload, nil
}
