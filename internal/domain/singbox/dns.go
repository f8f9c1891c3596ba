package singbox

import (
	"context"

	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
)

// GenerateDNS 生成 DNS 服務器與規則
// remote 系列經第一個代理組出站，local 系列直連
func (g *generator) GenerateDNS(ctx context.Context, p *profile.Profile) (*DNS, error) {
	cfg := p.DNSConfig
	remoteDetour := p.DefaultProxyTag()

	servers := []DNSServer{
		{Tag: DNSRemote, Address: cfg.RemoteDNS, AddressResolver: DNSRemoteResolver, Detour: remoteDetour},
		{Tag: DNSLocal, Address: cfg.LocalDNS, AddressResolver: DNSResolver, Detour: TagDirect},
		{Tag: DNSResolver, Address: cfg.ResolverDNS, Detour: TagDirect},
		{Tag: DNSRemoteResolver, Address: cfg.RemoteResolverDNS, Detour: remoteDetour},
	}
	if cfg.FakeIP {
		servers = append(servers, DNSServer{Tag: DNSFakeIP, Address: "fakeip"})
	}
	servers = append(servers, DNSServer{Tag: DNSBlock, Address: "rcode://success"})

	rules := []DNSRule{
		DefaultDNSRule{Outbound: Listable[string]{"any"}, Server: DNSLocal, DisableCache: true},
	}

	if cfg.FakeIP {
		rules = append(rules, fakeIPRule(cfg.FakeIPFilter))
	}

	rules = append(rules,
		LogicalDNSRule{
			Type: "logical",
			Mode: "and",
			Rules: []DefaultDNSRule{
				{RuleSet: Listable[string]{RuleSetGeositeNotCN}, Invert: true},
				{RuleSet: Listable[string]{RuleSetGeositeCN}},
			},
			Server: DNSLocal,
		},
		DefaultDNSRule{RuleSet: Listable[string]{RuleSetGeositeNotCN}, Server: DNSRemote},
	)

	return &DNS{Servers: servers, Rules: rules}, nil
}

// fakeIPRule 不在過濾列表中的 A/AAAA 查詢交給 fakeip
// 過濾列表為空時直接匹配所有 A/AAAA 查詢
func fakeIPRule(filter []string) DNSRule {
	queryType := Listable[string]{"A", "AAAA"}
	if len(filter) == 0 {
		return DefaultDNSRule{QueryType: queryType, Server: DNSFakeIP}
	}
	return LogicalDNSRule{
		Type: "logical",
		Mode: "and",
		Rules: []DefaultDNSRule{
			{DomainSuffix: append([]string(nil), filter...), Invert: true},
			{QueryType: queryType},
		},
		Server: DNSFakeIP,
	}
}
