package singbox

import (
	"context"
	"strings"

	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
)

const (
	tunInet4Address = "172.19.0.1/30"
	tunInet6Address = "fdfe:dcba:9876::1/126"
)

// GenerateInbounds 按端口與 TUN 開關生成入站
func (g *generator) GenerateInbounds(ctx context.Context, p *profile.Profile) ([]Inbound, error) {
	inbounds := []Inbound{}

	listen := "127.0.0.1"
	if p.GeneralConfig.AllowLAN {
		listen = "::"
	}

	listeners := []struct {
		typ  string
		port int
	}{
		{InboundMixed, p.GeneralConfig.MixedPort},
		{InboundHTTP, p.AdvancedConfig.Port},
		{InboundSOCKS, p.AdvancedConfig.SocksPort},
	}
	for _, l := range listeners {
		if l.port <= 0 {
			continue
		}
		inbounds = append(inbounds, ListenInbound{
			Type:         l.typ,
			Listen:       listen,
			ListenPort:   l.port,
			TCPMultiPath: p.AdvancedConfig.TCPConcurrent,
			Sniff:        true,
		})
	}

	if tun := p.TunConfig; tun.Enable {
		inbounds = append(inbounds, TunInbound{
			Type:                     InboundTun,
			InterfaceName:            tun.InterfaceName,
			Inet4Address:             tunInet4Address,
			Inet6Address:             tunInet6Address,
			MTU:                      tun.MTU,
			AutoRoute:                tun.AutoRoute,
			StrictRoute:              tun.StrictRoute,
			Sniff:                    true,
			SniffOverrideDestination: false,
			EndpointIndependentNAT:   tun.EndpointIndependentNAT,
			Stack:                    strings.ToLower(tun.Stack),
		})
	}

	return inbounds, nil
}
