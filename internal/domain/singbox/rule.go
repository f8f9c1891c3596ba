package singbox

import (
	"strconv"
	"strings"

	"github.com/Yat-Muk/prism-desk/internal/domain/catalog"
	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
)

// 值為端口號的規則類型，輸出數字而非字符串
var portRuleFields = map[string]struct{}{
	"port":        {},
	"source_port": {},
}

// CompileRule 將一條用戶規則編譯為路由規則
// 規則集不存在、payload 為空或 final 規則時返回 false
func CompileRule(rule profile.Rule, rulesets catalog.RulesetRegistry) (RouteRule, bool) {
	switch rule.Type {
	case profile.RuleTypeFinal, "":
		return nil, false
	case profile.RuleTypeRuleSet:
		if rulesets == nil {
			return nil, false
		}
		rs, ok := rulesets.GetRuleset(rule.Payload)
		if !ok {
			return nil, false
		}
		return DefaultRouteRule{
			RuleSet:  Listable[string]{rs.Tag},
			Outbound: rule.Proxy,
		}, true
	}

	tokens := splitPayload(rule.Payload)
	if len(tokens) == 0 {
		return nil, false
	}

	if _, ok := portRuleFields[rule.Type]; ok {
		ports := make([]uint16, 0, len(tokens))
		for _, t := range tokens {
			n, err := strconv.ParseUint(t, 10, 16)
			if err != nil {
				continue
			}
			ports = append(ports, uint16(n))
		}
		if len(ports) == 0 {
			return nil, false
		}
		return PortRule{Field: rule.Type, Ports: ports, Outbound: rule.Proxy}, true
	}

	return MatchRule{Field: rule.Type, Values: tokens, Outbound: rule.Proxy}, true
}

func splitPayload(payload string) []string {
	parts := strings.Split(payload, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
