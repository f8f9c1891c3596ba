package singbox

import (
	"encoding/json"
	"fmt"
)

// 內置出站 Tag
const (
	TagDirect = "direct"
	TagDNSOut = "dns-out"
	TagBlock  = "block"
)

// 內置規則集 Tag
const (
	RuleSetGeoIPCN      = "built-in-geoip-cn"
	RuleSetGeositeCN    = "built-in-geosite-cn"
	RuleSetGeositeNotCN = "built-in-geosite-geolocation-!cn"
)

// DNS 服務器 Tag
const (
	DNSRemote         = "remote-dns"
	DNSLocal          = "local-dns"
	DNSResolver       = "resolver-dns"
	DNSRemoteResolver = "remote-resolver-dns"
	DNSFakeIP         = "fakeip-dns"
	DNSBlock          = "block"
)

// Config Sing-box 完整配置
type Config struct {
	Log          *Log          `json:"log"`
	Experimental *Experimental `json:"experimental"`
	Inbounds     []Inbound     `json:"inbounds"`
	Outbounds    []Outbound    `json:"outbounds"`
	Route        *Route        `json:"route"`
	DNS          *DNS          `json:"dns,omitempty"`
}

type Log struct {
	Level     string `json:"level"`
	Timestamp bool   `json:"timestamp"`
}

type Experimental struct {
	ClashAPI  ClashAPI  `json:"clash_api"`
	CacheFile CacheFile `json:"cache_file"`
}

type ClashAPI struct {
	ExternalController    string `json:"external_controller,omitempty"`
	ExternalUI            string `json:"external_ui,omitempty"`
	Secret                string `json:"secret,omitempty"`
	ExternalUIDownloadURL string `json:"external_ui_download_url,omitempty"`
}

type CacheFile struct {
	Enabled     bool `json:"enabled"`
	StoreFakeIP bool `json:"store_fakeip"`
}

// ----------------------------------------------------------------------------
// Inbounds
// ----------------------------------------------------------------------------

// 入站類型
const (
	InboundMixed = "mixed"
	InboundHTTP  = "http"
	InboundSOCKS = "socks"
	InboundTun   = "tun"
)

// Inbound 入站變體：ListenInbound 或 TunInbound
type Inbound interface {
	InboundType() string
}

// ListenInbound mixed / http / socks 監聽入站
type ListenInbound struct {
	Type         string `json:"type"`
	Listen       string `json:"listen"`
	ListenPort   int    `json:"listen_port"`
	TCPMultiPath bool   `json:"tcp_multi_path"`
	Sniff        bool   `json:"sniff"`
}

func (i ListenInbound) InboundType() string { return i.Type }

// TunInbound TUN 入站
type TunInbound struct {
	Type                     string `json:"type"`
	InterfaceName            string `json:"interface_name,omitempty"`
	Inet4Address             string `json:"inet4_address"`
	Inet6Address             string `json:"inet6_address"`
	MTU                      int    `json:"mtu"`
	AutoRoute                bool   `json:"auto_route"`
	StrictRoute              bool   `json:"strict_route"`
	Sniff                    bool   `json:"sniff"`
	SniffOverrideDestination bool   `json:"sniff_override_destination"`
	EndpointIndependentNAT   bool   `json:"endpoint_independent_nat"`
	Stack                    string `json:"stack"`
}

func (TunInbound) InboundType() string { return InboundTun }

// ----------------------------------------------------------------------------
// Outbounds
// ----------------------------------------------------------------------------

// 出站類型
const (
	OutboundSelector = "selector"
	OutboundURLTest  = "urltest"
	OutboundDirect   = "direct"
	OutboundDNS      = "dns"
	OutboundBlock    = "block"
)

// Outbound 出站變體
type Outbound interface {
	OutboundTag() string
}

// SelectorOutbound 手動選擇代理組
type SelectorOutbound struct {
	Tag       string   `json:"tag"`
	Type      string   `json:"type"`
	Outbounds []string `json:"outbounds"`
}

func (o SelectorOutbound) OutboundTag() string { return o.Tag }

// URLTestOutbound 延遲測試代理組
type URLTestOutbound struct {
	Tag       string   `json:"tag"`
	Type      string   `json:"type"`
	Outbounds []string `json:"outbounds"`
	URL       string   `json:"url"`
	Interval  string   `json:"interval"`
	Tolerance int      `json:"tolerance"`
}

func (o URLTestOutbound) OutboundTag() string { return o.Tag }

// BasicOutbound direct / dns / block 等無參數出站
type BasicOutbound struct {
	Type string `json:"type"`
	Tag  string `json:"tag"`
}

func (o BasicOutbound) OutboundTag() string { return o.Tag }

// Proxy 訂閱中的代理節點
// 保留原始 JSON，未知字段原樣輸出
type Proxy struct {
	Type string
	Tag  string
	raw  json.RawMessage
}

func (p Proxy) OutboundTag() string { return p.Tag }

func (p Proxy) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return json.Marshal(BasicOutbound{Type: p.Type, Tag: p.Tag})
	}
	return p.raw, nil
}

func (p *Proxy) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
		Tag  string `json:"tag"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("解析代理節點失敗: %w", err)
	}
	p.Type = head.Type
	p.Tag = head.Tag
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

// ----------------------------------------------------------------------------
// DNS
// ----------------------------------------------------------------------------

type DNS struct {
	Servers  []DNSServer `json:"servers"`
	Rules    []DNSRule   `json:"rules"`
	FakeIP   *FakeIP     `json:"fakeip,omitempty"`
	Final    string      `json:"final,omitempty"`
	Strategy string      `json:"strategy,omitempty"`
}

type DNSServer struct {
	Tag             string `json:"tag"`
	Address         string `json:"address"`
	AddressResolver string `json:"address_resolver,omitempty"`
	Detour          string `json:"detour,omitempty"`
}

type FakeIP struct {
	Enabled    bool   `json:"enabled"`
	Inet4Range string `json:"inet4_range,omitempty"`
	Inet6Range string `json:"inet6_range,omitempty"`
}

// DNSRule DNS 規則變體：DefaultDNSRule 或 LogicalDNSRule
type DNSRule interface {
	dnsRule()
}

type DefaultDNSRule struct {
	Outbound     Listable[string] `json:"outbound,omitempty"`
	DomainSuffix []string         `json:"domain_suffix,omitempty"`
	QueryType    Listable[string] `json:"query_type,omitempty"`
	RuleSet      Listable[string] `json:"rule_set,omitempty"`
	Invert       bool             `json:"invert,omitempty"`
	Server       string           `json:"server,omitempty"`
	DisableCache bool             `json:"disable_cache,omitempty"`
}

func (DefaultDNSRule) dnsRule() {}

type LogicalDNSRule struct {
	Type   string           `json:"type"`
	Mode   string           `json:"mode"`
	Rules  []DefaultDNSRule `json:"rules"`
	Server string           `json:"server"`
}

func (LogicalDNSRule) dnsRule() {}

// ----------------------------------------------------------------------------
// Route
// ----------------------------------------------------------------------------

type Route struct {
	RuleSet             []RuleSet   `json:"rule_set"`
	Rules               []RouteRule `json:"rules"`
	Final               string      `json:"final,omitempty"`
	AutoDetectInterface bool        `json:"auto_detect_interface,omitempty"`
	DefaultInterface    string      `json:"default_interface,omitempty"`
}

// RuleSet 規則集定義：remote 帶 URL，local 帶 Path
type RuleSet struct {
	Tag            string `json:"tag"`
	Type           string `json:"type"`
	Format         string `json:"format"`
	URL            string `json:"url,omitempty"`
	DownloadDetour string `json:"download_detour,omitempty"`
	Path           string `json:"path,omitempty"`
}

// RouteRule 路由規則變體
type RouteRule interface {
	RuleOutbound() string
}

type DefaultRouteRule struct {
	Protocol    Listable[string] `json:"protocol,omitempty"`
	Network     Listable[string] `json:"network,omitempty"`
	Port        Listable[uint16] `json:"port,omitempty"`
	IPIsPrivate bool             `json:"ip_is_private,omitempty"`
	RuleSet     Listable[string] `json:"rule_set,omitempty"`
	Invert      bool             `json:"invert,omitempty"`
	Outbound    string           `json:"outbound,omitempty"`
}

func (r DefaultRouteRule) RuleOutbound() string { return r.Outbound }

type LogicalRouteRule struct {
	Type     string             `json:"type"`
	Mode     string             `json:"mode"`
	Rules    []DefaultRouteRule `json:"rules"`
	Outbound string             `json:"outbound"`
}

func (r LogicalRouteRule) RuleOutbound() string { return r.Outbound }

// MatchRule 用戶規則：以規則類型為鍵的字符串匹配列表
type MatchRule struct {
	Field    string
	Values   []string
	Outbound string
}

func (r MatchRule) RuleOutbound() string { return r.Outbound }

func (r MatchRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		r.Field:    r.Values,
		"outbound": r.Outbound,
	})
}

// PortRule 用戶端口規則（port / source_port）
type PortRule struct {
	Field    string
	Ports    []uint16
	Outbound string
}

func (r PortRule) RuleOutbound() string { return r.Outbound }

func (r PortRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		r.Field:    r.Ports,
		"outbound": r.Outbound,
	})
}
