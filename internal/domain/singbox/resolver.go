package singbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/Yat-Muk/prism-desk/internal/domain/catalog"
	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
)

// BlobReader 讀取工作目錄下的文件
type BlobReader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// Resolution 代理解析結果
type Resolution struct {
	// Proxies 最終輸出的代理節點，Tag 唯一，按首次出現順序
	Proxies []Proxy
	// GroupTags 與輸入代理組一一對應的出站 Tag 列表
	GroupTags [][]string
}

// Outbounds 代理組出站在前，代理節點在後
func (r *Resolution) Outbounds(groups []profile.ProxyGroup) []Outbound {
	outbounds := make([]Outbound, 0, len(groups)+len(r.Proxies))

	for i, g := range groups {
		switch g.Type {
		case profile.GroupSelect:
			outbounds = append(outbounds, SelectorOutbound{
				Tag:       g.Tag,
				Type:      OutboundSelector,
				Outbounds: r.GroupTags[i],
			})
		case profile.GroupURLTest:
			outbounds = append(outbounds, URLTestOutbound{
				Tag:       g.Tag,
				Type:      OutboundURLTest,
				Outbounds: r.GroupTags[i],
				URL:       g.URL,
				Interval:  strconv.Itoa(g.Interval) + "s",
				Tolerance: g.Tolerance,
			})
		}
	}

	for _, p := range r.Proxies {
		outbounds = append(outbounds, p)
	}
	return outbounds
}

// ProxyResolver 從訂閱中解析代理組引用的節點
type ProxyResolver struct {
	blobs  BlobReader
	subs   catalog.SubscriptionRegistry
	logger *zap.Logger
}

func NewProxyResolver(blobs BlobReader, subs catalog.SubscriptionRegistry, logger *zap.Logger) *ProxyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProxyResolver{blobs: blobs, subs: subs, logger: logger}
}

// resolveState 單次解析的中間狀態
type resolveState struct {
	proxyMap map[string][]Proxy
	tried    map[string]struct{}
	included map[string]struct{}
	proxies  []Proxy
}

// Resolve 解析代理組
// 單個訂閱讀取或解析失敗只記錄日誌，不會中斷整體解析
func (r *ProxyResolver) Resolve(ctx context.Context, groups []profile.ProxyGroup) (*Resolution, error) {
	st := &resolveState{
		proxyMap: make(map[string][]Proxy),
		tried:    make(map[string]struct{}),
		included: make(map[string]struct{}),
	}

	// 1. 所有 use 訂閱（按首次出現順序）
	for _, subID := range orderedUses(groups) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		list, ok := r.load(ctx, st, subID)
		if !ok {
			continue
		}
		for _, p := range list {
			st.include(p)
		}
	}

	// 2. 代理組直接引用的節點，按需加載其所屬訂閱
	for _, g := range groups {
		for _, ref := range g.Proxies {
			if ref.Type == profile.BuiltInProxy {
				continue
			}
			if _, ok := st.included[ref.Tag]; ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			list, ok := r.load(ctx, st, ref.Type)
			if !ok {
				continue
			}
			for _, p := range list {
				if p.Tag == ref.Tag {
					st.include(p)
					break
				}
			}
		}
	}

	// 3. 每個代理組的出站 Tag 列表
	groupTags := make([][]string, len(groups))
	for i, g := range groups {
		groupTags[i] = st.groupOutbounds(g)
	}

	return &Resolution{Proxies: st.proxies, GroupTags: groupTags}, nil
}

// load 加載訂閱節點，每個訂閱只嘗試一次
func (r *ProxyResolver) load(ctx context.Context, st *resolveState, subID string) ([]Proxy, bool) {
	if list, ok := st.proxyMap[subID]; ok {
		return list, true
	}
	if _, ok := st.tried[subID]; ok {
		return nil, false
	}
	st.tried[subID] = struct{}{}

	if r.subs == nil {
		return nil, false
	}
	sub, ok := r.subs.GetSubscription(subID)
	if !ok {
		r.logger.Debug("訂閱不存在，跳過", zap.String("subscription", subID))
		return nil, false
	}

	list, err := r.readProxies(ctx, sub.Path)
	if err != nil {
		r.logger.Warn("讀取訂閱失敗，跳過",
			zap.String("subscription", subID),
			zap.String("path", sub.Path),
			zap.Error(err),
		)
		return nil, false
	}

	st.proxyMap[subID] = list
	return list, true
}

func (r *ProxyResolver) readProxies(ctx context.Context, path string) ([]Proxy, error) {
	if r.blobs == nil {
		return nil, fmt.Errorf("未配置文件讀取器")
	}
	data, err := r.blobs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	var list []Proxy
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("解析訂閱文件失敗: %w", err)
	}
	return list, nil
}

func (st *resolveState) include(p Proxy) {
	if p.Tag == "" {
		return
	}
	if _, ok := st.included[p.Tag]; ok {
		return
	}
	st.included[p.Tag] = struct{}{}
	st.proxies = append(st.proxies, p)
}

// groupOutbounds 直接成員（內置或已解析）在前，use 訂閱的節點在後，去重保序
func (st *resolveState) groupOutbounds(g profile.ProxyGroup) []string {
	tags := make([]string, 0, len(g.Proxies))
	seen := make(map[string]struct{})
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, ref := range g.Proxies {
		if ref.Type == profile.BuiltInProxy {
			add(ref.Tag)
			continue
		}
		if _, ok := st.included[ref.Tag]; ok {
			add(ref.Tag)
		}
	}
	for _, use := range g.Use {
		for _, p := range st.proxyMap[use] {
			add(p.Tag)
		}
	}
	return tags
}

func orderedUses(groups []profile.ProxyGroup) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, g := range groups {
		for _, use := range g.Use {
			if _, ok := seen[use]; ok {
				continue
			}
			seen[use] = struct{}{}
			ids = append(ids, use)
		}
	}
	return ids
}
