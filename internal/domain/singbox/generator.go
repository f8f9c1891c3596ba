package singbox

import (
	"context"

	"go.uber.org/zap"

	"github.com/Yat-Muk/prism-desk/internal/domain/catalog"
	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
	"github.com/Yat-Muk/prism-desk/internal/pkg/errors"
)

// Sources 生成配置時依賴的外部數據快照
type Sources struct {
	Blobs         BlobReader
	Subscriptions catalog.SubscriptionRegistry
	Rulesets      catalog.RulesetRegistry
}

// Generator Sing-box 配置生成器接口
type Generator interface {
	Generate(ctx context.Context, p *profile.Profile, src Sources) (*Config, error)
	GenerateInbounds(ctx context.Context, p *profile.Profile) ([]Inbound, error)
	GenerateOutbounds(ctx context.Context, p *profile.Profile, src Sources) ([]Outbound, error)
	GenerateRoute(ctx context.Context, p *profile.Profile, src Sources) (*Route, error)
	GenerateDNS(ctx context.Context, p *profile.Profile) (*DNS, error)
}

type generator struct {
	logger *zap.Logger
}

func NewGenerator(logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &generator{logger: logger}
}

// Generate 由 Profile 生成完整配置
// 先深拷貝 Profile，生成過程不會修改調用方的數據
func (g *generator) Generate(ctx context.Context, p *profile.Profile, src Sources) (*Config, error) {
	if p == nil {
		return nil, errors.New("SINGBOX001", "配置不能為空")
	}
	p = p.DeepCopy()

	inbounds, err := g.GenerateInbounds(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "SINGBOX003", "生成 inbound 配置失敗")
	}

	outbounds, err := g.GenerateOutbounds(ctx, p, src)
	if err != nil {
		return nil, errors.Wrap(err, "SINGBOX004", "生成 outbound 配置失敗")
	}

	route, err := g.GenerateRoute(ctx, p, src)
	if err != nil {
		return nil, errors.Wrap(err, "SINGBOX005", "生成路由配置失敗")
	}

	cfg := &Config{
		Log:          g.generateLog(p),
		Experimental: g.generateExperimental(p),
		Inbounds:     inbounds,
		Outbounds:    outbounds,
		Route:        route,
	}

	if p.DNSConfig.Enable {
		dns, err := g.GenerateDNS(ctx, p)
		if err != nil {
			return nil, errors.Wrap(err, "SINGBOX002", "生成 DNS 配置失敗")
		}
		dns.FakeIP = &FakeIP{
			Enabled:    p.DNSConfig.FakeIP,
			Inet4Range: p.DNSConfig.FakeIPRangeV4,
			Inet6Range: p.DNSConfig.FakeIPRangeV6,
		}
		dns.Final = p.DNSConfig.FinalDNS
		dns.Strategy = p.DNSConfig.Strategy
		cfg.DNS = dns
	}

	g.logger.Debug("配置生成完成",
		zap.String("profile", p.ID),
		zap.String("mode", p.GeneralConfig.Mode),
		zap.Int("inbounds", len(cfg.Inbounds)),
		zap.Int("outbounds", len(cfg.Outbounds)),
		zap.Int("rules", len(cfg.Route.Rules)),
	)

	return cfg, nil
}

func (g *generator) generateLog(p *profile.Profile) *Log {
	return &Log{
		Level:     p.GeneralConfig.LogLevel,
		Timestamp: true,
	}
}

func (g *generator) generateExperimental(p *profile.Profile) *Experimental {
	adv := p.AdvancedConfig
	return &Experimental{
		ClashAPI: ClashAPI{
			ExternalController:    adv.ExternalController,
			ExternalUI:            adv.ExternalUI,
			Secret:                adv.Secret,
			ExternalUIDownloadURL: adv.ExternalUIURL,
		},
		CacheFile: CacheFile{
			Enabled:     adv.Profile.StoreCache,
			StoreFakeIP: adv.Profile.StoreFakeIP,
		},
	}
}

// GenerateOutbounds 代理組與訂閱節點，之後固定追加 direct / dns-out / block
func (g *generator) GenerateOutbounds(ctx context.Context, p *profile.Profile, src Sources) ([]Outbound, error) {
	resolver := NewProxyResolver(src.Blobs, src.Subscriptions, g.logger)
	res, err := resolver.Resolve(ctx, p.ProxyGroupsConfig)
	if err != nil {
		return nil, err
	}

	outbounds := res.Outbounds(p.ProxyGroupsConfig)
	outbounds = append(outbounds,
		BasicOutbound{Type: OutboundDirect, Tag: TagDirect},
		BasicOutbound{Type: OutboundDNS, Tag: TagDNSOut},
		BasicOutbound{Type: OutboundBlock, Tag: TagBlock},
	)
	return outbounds, nil
}
