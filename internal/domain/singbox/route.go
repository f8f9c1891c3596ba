package singbox

import (
	"context"
	"strings"

	"github.com/Yat-Muk/prism-desk/internal/domain/catalog"
	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
)

const ruleSetBaseURL = "https://testingcf.jsdelivr.net/gh/MetaCubeX/meta-rules-dat@sing/geo/"

func builtinRuleSets() []RuleSet {
	remote := func(tag, path string) RuleSet {
		return RuleSet{
			Tag:            tag,
			Type:           "remote",
			Format:         "binary",
			URL:            ruleSetBaseURL + path,
			DownloadDetour: TagDirect,
		}
	}
	return []RuleSet{
		remote(RuleSetGeoIPCN, "geoip/cn.srs"),
		remote(RuleSetGeositeCN, "geosite/cn.srs"),
		remote(RuleSetGeositeNotCN, "geosite/geolocation-!cn.srs"),
	}
}

// GenerateRoute 生成路由配置，final 出站取決於運行模式
func (g *generator) GenerateRoute(ctx context.Context, p *profile.Profile, src Sources) (*Route, error) {
	proxyTag := p.DefaultProxyTag()

	route := &Route{
		RuleSet: append(builtinRuleSets(), localRuleSets(p.RulesConfig, src.Rulesets)...),
		Rules: []RouteRule{
			LogicalRouteRule{
				Type: "logical",
				Mode: "or",
				Rules: []DefaultRouteRule{
					{Protocol: Listable[string]{"dns"}},
					{Port: Listable[uint16]{53}},
				},
				Outbound: TagDNSOut,
			},
			DefaultRouteRule{Network: Listable[string]{"udp"}, Port: Listable[uint16]{443}, Outbound: TagBlock},
		},
	}

	switch p.GeneralConfig.Mode {
	case profile.ModeRule:
		route.Rules = append(route.Rules,
			DefaultRouteRule{IPIsPrivate: true, Outbound: TagDirect},
			LogicalRouteRule{
				Type: "logical",
				Mode: "and",
				Rules: []DefaultRouteRule{
					{RuleSet: Listable[string]{RuleSetGeositeNotCN}, Invert: true},
					{RuleSet: Listable[string]{RuleSetGeoIPCN, RuleSetGeositeCN}},
				},
				Outbound: TagDirect,
			},
			DefaultRouteRule{RuleSet: Listable[string]{RuleSetGeositeNotCN}, Outbound: proxyTag},
		)

		finalSet := false
		for _, r := range p.RulesConfig {
			if r.Type == profile.RuleTypeFinal {
				if !finalSet {
					route.Final = r.Proxy
					finalSet = true
				}
				continue
			}
			if clause, ok := CompileRule(r, src.Rulesets); ok {
				route.Rules = append(route.Rules, clause)
			}
		}
	case profile.ModeGlobal:
		route.Final = proxyTag
	default:
		route.Final = TagDirect
	}

	if name := p.GeneralConfig.InterfaceName; name == profile.InterfaceAuto {
		route.AutoDetectInterface = true
	} else {
		route.DefaultInterface = name
	}

	return route, nil
}

// localRuleSets 用戶規則引用的本地規則集
// 同一 Tag 只輸出一次；內核工作目錄位於 data 下一級，路徑中的 data/ 改寫為 ../
func localRuleSets(rules []profile.Rule, rulesets catalog.RulesetRegistry) []RuleSet {
	var sets []RuleSet
	if rulesets == nil {
		return sets
	}
	seen := make(map[string]struct{})
	for _, r := range rules {
		if r.Type != profile.RuleTypeRuleSet {
			continue
		}
		rs, ok := rulesets.GetRuleset(r.Payload)
		if !ok {
			continue
		}
		if _, dup := seen[rs.Tag]; dup {
			continue
		}
		seen[rs.Tag] = struct{}{}
		sets = append(sets, RuleSet{
			Tag:    rs.Tag,
			Type:   "local",
			Format: rs.Format,
			Path:   strings.Replace(rs.Path, "data/", "../", 1),
		})
	}
	return sets
}
