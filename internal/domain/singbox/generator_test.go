package singbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Yat-Muk/prism-desk/internal/domain/catalog"
	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
	"github.com/Yat-Muk/prism-desk/internal/pkg/errors"
)

func testSources() Sources {
	return Sources{
		Blobs:         testBlobs(),
		Subscriptions: testSubscriptions(),
		Rulesets: catalog.NewSnapshot(nil, []catalog.Ruleset{
			{ID: "rs1", Tag: "x", Format: "source", Path: "data/rulesets/x.yaml"},
			{ID: "rs2", Tag: "x", Format: "source", Path: "data/rulesets/x-copy.yaml"},
		}),
	}
}

func testProfile() *profile.Profile {
	p := profile.Default()
	p.ID = "p1"
	p.Name = "test"
	p.GeneralConfig.MixedPort = 7890
	p.ProxyGroupsConfig = []profile.ProxyGroup{
		{ID: "g1", Tag: "Proxy", Type: profile.GroupSelect, Use: []string{"sub1"}},
		{ID: "g2", Tag: "Auto", Type: profile.GroupURLTest, Use: []string{"sub1"}, URL: "https://cp.cloudflare.com", Interval: 60},
	}
	p.RulesConfig = []profile.Rule{
		{ID: "r1", Type: "domain", Payload: "a.com,b.com", Proxy: "Proxy"},
		{ID: "r2", Type: profile.RuleTypeRuleSet, Payload: "rs1", Proxy: "direct"},
		{ID: "r3", Type: profile.RuleTypeRuleSet, Payload: "missing", Proxy: "block"},
		{ID: "r4", Type: profile.RuleTypeFinal, Proxy: "Auto"},
		{ID: "r5", Type: profile.RuleTypeFinal, Proxy: "direct"},
		{ID: "r6", Type: profile.RuleTypeRuleSet, Payload: "rs2", Proxy: "block"},
	}
	return p
}

func toMap(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestGenerate_NilProfile(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	_, err := g.Generate(context.Background(), nil, testSources())
	require.Error(t, err)
	assert.Equal(t, "SINGBOX001", errors.CodeOf(err))
}

func TestGenerate_TopLevelKeys(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	p := testProfile()

	cfg, err := g.Generate(context.Background(), p, testSources())
	require.NoError(t, err)

	doc := toMap(t, cfg)
	for _, key := range []string{"log", "experimental", "inbounds", "outbounds", "route", "dns"} {
		assert.Contains(t, doc, key)
	}

	p.DNSConfig.Enable = false
	cfg, err = g.Generate(context.Background(), p, testSources())
	require.NoError(t, err)
	assert.NotContains(t, toMap(t, cfg), "dns")
}

func TestGenerate_DoesNotMutateProfile(t *testing.T) {
	g := NewGenerator(nil)
	p := testProfile()
	before := p.DeepCopy()

	_, err := g.Generate(context.Background(), p, testSources())
	require.NoError(t, err)
	assert.Equal(t, before, p.DeepCopy())
}

func TestGenerate_LogAndExperimental(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	p := testProfile()
	p.GeneralConfig.LogLevel = "warn"
	p.AdvancedConfig.Secret = "abc"

	cfg, err := g.Generate(context.Background(), p, testSources())
	require.NoError(t, err)

	assert.Equal(t, &Log{Level: "warn", Timestamp: true}, cfg.Log)
	assert.Equal(t, "abc", cfg.Experimental.ClashAPI.Secret)
	assert.Equal(t, "127.0.0.1:20123", cfg.Experimental.ClashAPI.ExternalController)
	assert.True(t, cfg.Experimental.CacheFile.Enabled)
}

func TestGenerateInbounds(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	p := testProfile()
	p.AdvancedConfig.TCPConcurrent = false

	inbounds, err := g.GenerateInbounds(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, inbounds, 1)
	assert.JSONEq(t,
		`{"type":"mixed","listen":"127.0.0.1","listen_port":7890,"tcp_multi_path":false,"sniff":true}`,
		mustJSON(t, inbounds[0]))

	p.GeneralConfig.AllowLAN = true
	p.AdvancedConfig.Port = 7891
	p.AdvancedConfig.SocksPort = 7892
	p.TunConfig.Enable = true
	p.TunConfig.Stack = "gVisor"

	inbounds, err = g.GenerateInbounds(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, inbounds, 4)

	types := make([]string, 0, len(inbounds))
	for _, in := range inbounds {
		types = append(types, in.InboundType())
	}
	assert.Equal(t, []string{"mixed", "http", "socks", "tun"}, types)
	assert.Equal(t, "::", inbounds[1].(ListenInbound).Listen)

	tun := inbounds[3].(TunInbound)
	assert.Equal(t, "gvisor", tun.Stack)
	assert.Equal(t, "172.19.0.1/30", tun.Inet4Address)
	assert.Equal(t, 9000, tun.MTU)
}

func TestGenerateOutbounds_SharedTagOnce(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	outbounds, err := g.GenerateOutbounds(context.Background(), testProfile(), testSources())
	require.NoError(t, err)

	tags := make([]string, 0, len(outbounds))
	for _, o := range outbounds {
		tags = append(tags, o.OutboundTag())
	}
	assert.Equal(t, []string{"Proxy", "Auto", "HK", "JP", "direct", "dns-out", "block"}, tags)

	auto := toMap(t, outbounds[1])
	assert.Equal(t, "urltest", auto["type"])
	assert.Equal(t, "60s", auto["interval"])
}

func TestGenerateRoute_FinalByMode(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		mode  string
		final string
	}{
		{profile.ModeRule, "Auto"},
		{profile.ModeGlobal, "Proxy"},
		{profile.ModeDirect, "direct"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			p := testProfile()
			p.GeneralConfig.Mode = tt.mode

			route, err := g.GenerateRoute(ctx, p, testSources())
			require.NoError(t, err)
			assert.Equal(t, tt.final, route.Final)
		})
	}
}

func TestGenerateRoute_RuleMode(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	route, err := g.GenerateRoute(context.Background(), testProfile(), testSources())
	require.NoError(t, err)

	// 三個內置規則集 + 一個本地規則集（同 Tag 只出現一次，缺失的規則集被忽略）
	require.Len(t, route.RuleSet, 4)
	assert.Equal(t, RuleSetGeoIPCN, route.RuleSet[0].Tag)
	assert.Equal(t, TagDirect, route.RuleSet[0].DownloadDetour)
	assert.Equal(t, RuleSet{Tag: "x", Type: "local", Format: "source", Path: "../rulesets/x.yaml"}, route.RuleSet[3])

	require.Len(t, route.Rules, 8)
	assert.JSONEq(t,
		`{"type":"logical","mode":"or","rules":[{"protocol":"dns"},{"port":53}],"outbound":"dns-out"}`,
		mustJSON(t, route.Rules[0]))
	assert.JSONEq(t, `{"network":"udp","port":443,"outbound":"block"}`, mustJSON(t, route.Rules[1]))
	assert.JSONEq(t, `{"ip_is_private":true,"outbound":"direct"}`, mustJSON(t, route.Rules[2]))
	assert.JSONEq(t, `{"rule_set":"built-in-geosite-geolocation-!cn","outbound":"Proxy"}`, mustJSON(t, route.Rules[4]))
	assert.JSONEq(t, `{"domain":["a.com","b.com"],"outbound":"Proxy"}`, mustJSON(t, route.Rules[5]))
	assert.JSONEq(t, `{"rule_set":"x","outbound":"direct"}`, mustJSON(t, route.Rules[6]))
	assert.JSONEq(t, `{"rule_set":"x","outbound":"block"}`, mustJSON(t, route.Rules[7]))

	assert.True(t, route.AutoDetectInterface)
	assert.Empty(t, route.DefaultInterface)
}

func TestGenerateRoute_NonRuleModesSkipUserRules(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	p := testProfile()
	p.GeneralConfig.Mode = profile.ModeGlobal
	p.GeneralConfig.InterfaceName = "eth0"

	route, err := g.GenerateRoute(context.Background(), p, testSources())
	require.NoError(t, err)

	assert.Len(t, route.Rules, 2)
	assert.False(t, route.AutoDetectInterface)
	assert.Equal(t, "eth0", route.DefaultInterface)
}

func TestGenerateDNS(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	p := testProfile()

	dns, err := g.GenerateDNS(context.Background(), p)
	require.NoError(t, err)

	tags := make([]string, 0, len(dns.Servers))
	for _, s := range dns.Servers {
		tags = append(tags, s.Tag)
	}
	assert.Equal(t, []string{"remote-dns", "local-dns", "resolver-dns", "remote-resolver-dns", "block"}, tags)
	assert.Equal(t, "Proxy", dns.Servers[0].Detour)
	assert.Equal(t, "direct", dns.Servers[1].Detour)
	assert.Len(t, dns.Rules, 3)

	p.ProxyGroupsConfig = nil
	dns, err = g.GenerateDNS(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "direct", dns.Servers[0].Detour)
}

func TestGenerateDNS_FakeIP(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	p := testProfile()
	p.DNSConfig.FakeIP = true

	cfg, err := g.Generate(context.Background(), p, testSources())
	require.NoError(t, err)

	var fakeServer bool
	for _, s := range cfg.DNS.Servers {
		if s.Tag == DNSFakeIP {
			fakeServer = true
			assert.Equal(t, "fakeip", s.Address)
		}
	}
	assert.True(t, fakeServer)
	require.Len(t, cfg.DNS.Rules, 4)
	assert.JSONEq(t,
		`{"type":"logical","mode":"and","rules":[{"domain_suffix":["lan","local","localhost"],"invert":true},{"query_type":["A","AAAA"]}],"server":"fakeip-dns"}`,
		mustJSON(t, cfg.DNS.Rules[1]))
	assert.True(t, cfg.DNS.FakeIP.Enabled)
	assert.Equal(t, "198.18.0.1/16", cfg.DNS.FakeIP.Inet4Range)

	p.DNSConfig.FakeIPFilter = nil
	dns, err := g.GenerateDNS(context.Background(), p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query_type":["A","AAAA"],"server":"fakeip-dns"}`, mustJSON(t, dns.Rules[1]))

	p.DNSConfig.FakeIP = false
	cfg, err = g.Generate(context.Background(), p, testSources())
	require.NoError(t, err)
	for _, s := range cfg.DNS.Servers {
		assert.NotEqual(t, DNSFakeIP, s.Tag)
	}
	for _, r := range cfg.DNS.Rules {
		assert.NotContains(t, mustJSON(t, r), DNSFakeIP)
	}
	assert.False(t, cfg.DNS.FakeIP.Enabled)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
