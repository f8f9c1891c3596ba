package catalog

// Subscription 代理訂閱源，Path 指向一個 JSON 代理數組文件
type Subscription struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	URL        string `yaml:"url,omitempty"`
	Path       string `yaml:"path"`
	Disabled   bool   `yaml:"disabled,omitempty"`
	UpdateTime string `yaml:"updateTime,omitempty"`
}

// Ruleset 規則集
type Ruleset struct {
	ID         string `yaml:"id"`
	Tag        string `yaml:"tag"`
	Format     string `yaml:"format"`
	Path       string `yaml:"path"`
	URL        string `yaml:"url,omitempty"`
	Disabled   bool   `yaml:"disabled,omitempty"`
	UpdateTime string `yaml:"updateTime,omitempty"`
}

// SubscriptionRegistry 訂閱查詢接口
type SubscriptionRegistry interface {
	GetSubscription(id string) (Subscription, bool)
}

// RulesetRegistry 規則集查詢接口
type RulesetRegistry interface {
	GetRuleset(id string) (Ruleset, bool)
}

// Snapshot 訂閱與規則集的只讀快照
// 生成配置時傳入快照，而非訪問全局狀態
type Snapshot struct {
	subscriptions map[string]Subscription
	rulesets      map[string]Ruleset
}

// NewSnapshot 從列表構建快照，ID 重複時保留第一個
func NewSnapshot(subs []Subscription, rulesets []Ruleset) *Snapshot {
	s := &Snapshot{
		subscriptions: make(map[string]Subscription, len(subs)),
		rulesets:      make(map[string]Ruleset, len(rulesets)),
	}
	for _, sub := range subs {
		if _, ok := s.subscriptions[sub.ID]; !ok {
			s.subscriptions[sub.ID] = sub
		}
	}
	for _, rs := range rulesets {
		if _, ok := s.rulesets[rs.ID]; !ok {
			s.rulesets[rs.ID] = rs
		}
	}
	return s
}

func (s *Snapshot) GetSubscription(id string) (Subscription, bool) {
	sub, ok := s.subscriptions[id]
	return sub, ok
}

func (s *Snapshot) GetRuleset(id string) (Ruleset, bool) {
	rs, ok := s.rulesets[id]
	return rs, ok
}
