package profile

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Yat-Muk/prism-desk/internal/domain/validator"
	"github.com/Yat-Muk/prism-desk/internal/pkg/crypto"
)

// 運行模式
const (
	ModeRule   = "rule"
	ModeGlobal = "global"
	ModeDirect = "direct"
)

// 代理組類型
const (
	GroupSelect  = "select"
	GroupURLTest = "urltest"
)

// 特殊規則類型
const (
	RuleTypeRuleSet = "rule_set"
	RuleTypeFinal   = "final"
)

// BuiltInProxy 直接引用內置出站（direct / block / 其他代理組）的成員類型
const BuiltInProxy = "built-in"

// InterfaceAuto 自動檢測出口網卡
const InterfaceAuto = "Auto"

// Profile 用戶可編輯的一份完整配置
type Profile struct {
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	GeneralConfig     GeneralConfig  `yaml:"generalConfig"`
	AdvancedConfig    AdvancedConfig `yaml:"advancedConfig"`
	TunConfig         TunConfig      `yaml:"tunConfig"`
	DNSConfig         DNSConfig      `yaml:"dnsConfig"`
	ProxyGroupsConfig []ProxyGroup   `yaml:"proxyGroupsConfig"`
	RulesConfig       []Rule         `yaml:"rulesConfig"`
}

// GeneralConfig 常規設置
type GeneralConfig struct {
	Mode          string `yaml:"mode"`
	MixedPort     int    `yaml:"mixed-port"`
	AllowLAN      bool   `yaml:"allow-lan"`
	LogLevel      string `yaml:"log-level"`
	InterfaceName string `yaml:"interface-name"`
}

// AdvancedConfig 高級設置
type AdvancedConfig struct {
	Port               int          `yaml:"port"`
	SocksPort          int          `yaml:"socks-port"`
	Secret             string       `yaml:"secret"`
	ExternalController string       `yaml:"external-controller"`
	ExternalUI         string       `yaml:"external-ui"`
	ExternalUIURL      string       `yaml:"external-ui-url"`
	TCPConcurrent      bool         `yaml:"tcp-concurrent"`
	Profile            CacheProfile `yaml:"profile"`
	LANAllowedIPs      []string     `yaml:"lan-allowed-ips"`
	LANDisallowedIPs   []string     `yaml:"lan-disallowed-ips"`
}

// CacheProfile 緩存文件設置
type CacheProfile struct {
	StoreCache  bool `yaml:"store-cache,omitempty"`
	StoreFakeIP bool `yaml:"store-fake-ip,omitempty"`
}

// TunConfig TUN 虛擬網卡設置
type TunConfig struct {
	Enable                 bool   `yaml:"enable"`
	Stack                  string `yaml:"stack"`
	AutoRoute              bool   `yaml:"auto-route"`
	InterfaceName          string `yaml:"interface_name"`
	MTU                    int    `yaml:"mtu"`
	StrictRoute            bool   `yaml:"strict-route"`
	EndpointIndependentNAT bool   `yaml:"endpoint-independent-nat"`
}

// DNSConfig DNS 設置
type DNSConfig struct {
	Enable            bool     `yaml:"enable"`
	FakeIP            bool     `yaml:"fakeip"`
	Strategy          string   `yaml:"strategy"`
	LocalDNS          string   `yaml:"local-dns"`
	RemoteDNS         string   `yaml:"remote-dns"`
	ResolverDNS       string   `yaml:"resolver-dns"`
	RemoteResolverDNS string   `yaml:"remote-resolver-dns"`
	FinalDNS          string   `yaml:"final-dns"`
	FakeIPRangeV4     string   `yaml:"fake-ip-range-v4"`
	FakeIPRangeV6     string   `yaml:"fake-ip-range-v6"`
	FakeIPFilter      []string `yaml:"fake-ip-filter"`
}

// ProxyGroup 代理組
type ProxyGroup struct {
	ID        string     `yaml:"id"`
	Tag       string     `yaml:"tag"`
	Type      string     `yaml:"type"`
	Use       []string   `yaml:"use"`
	Proxies   []ProxyRef `yaml:"proxies"`
	URL       string     `yaml:"url"`
	Interval  int        `yaml:"interval"`
	Tolerance int        `yaml:"tolerance"`
}

// ProxyRef 代理組成員引用
// Type 為 "built-in" 或來源訂閱的 ID
type ProxyRef struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	Tag  string `yaml:"tag"`
}

// Rule 路由規則
type Rule struct {
	ID      string `yaml:"id"`
	Type    string `yaml:"type"`
	Payload string `yaml:"payload"`
	Proxy   string `yaml:"proxy"`
}

// New 創建帶默認值的新 Profile
func New(name string) *Profile {
	p := Default()
	p.ID = uuid.NewString()
	p.Name = name
	return p
}

// Default 返回默認 Profile（不含 ID）
func Default() *Profile {
	return &Profile{
		GeneralConfig: GeneralConfig{
			Mode:          ModeRule,
			MixedPort:     20122,
			AllowLAN:      false,
			LogLevel:      "info",
			InterfaceName: InterfaceAuto,
		},
		AdvancedConfig: AdvancedConfig{
			ExternalController: "127.0.0.1:20123",
			ExternalUI:         "ui",
			ExternalUIURL:      "https://github.com/MetaCubeX/metacubexd/archive/refs/heads/gh-pages.zip",
			TCPConcurrent:      true,
			Profile: CacheProfile{
				StoreCache:  true,
				StoreFakeIP: true,
			},
			LANAllowedIPs:    []string{"0.0.0.0/0", "::/0"},
			LANDisallowedIPs: []string{},
		},
		TunConfig: TunConfig{
			Enable:                 false,
			Stack:                  "System",
			AutoRoute:              true,
			InterfaceName:          "",
			MTU:                    9000,
			StrictRoute:            true,
			EndpointIndependentNAT: false,
		},
		DNSConfig: DNSConfig{
			Enable:            true,
			FakeIP:            false,
			Strategy:          "prefer_ipv4",
			LocalDNS:          "https://223.5.5.5/dns-query",
			RemoteDNS:         "tls://8.8.8.8",
			ResolverDNS:       "223.5.5.5",
			RemoteResolverDNS: "8.8.8.8",
			FinalDNS:          "remote-dns",
			FakeIPRangeV4:     "198.18.0.1/16",
			FakeIPRangeV6:     "fc00::/18",
			FakeIPFilter:      []string{"lan", "local", "localhost"},
		},
		ProxyGroupsConfig: []ProxyGroup{},
		RulesConfig:       []Rule{},
	}
}

// Validate 驗證 Profile
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile id 不能為空")
	}

	switch p.GeneralConfig.Mode {
	case ModeRule, ModeGlobal, ModeDirect:
	default:
		return fmt.Errorf("無效的運行模式: %q", p.GeneralConfig.Mode)
	}

	ports := map[string]int{
		"mixed-port": p.GeneralConfig.MixedPort,
		"port":       p.AdvancedConfig.Port,
		"socks-port": p.AdvancedConfig.SocksPort,
	}
	for name, port := range ports {
		if port < 0 || port > 65535 {
			return fmt.Errorf("端口 %s 超出範圍: %d", name, port)
		}
	}

	if err := p.DNSConfig.validate(); err != nil {
		return err
	}

	groupIDs := make(map[string]struct{}, len(p.ProxyGroupsConfig))
	for _, g := range p.ProxyGroupsConfig {
		if _, dup := groupIDs[g.ID]; dup {
			return fmt.Errorf("代理組 ID 重複: %s", g.ID)
		}
		groupIDs[g.ID] = struct{}{}
	}

	ruleIDs := make(map[string]struct{}, len(p.RulesConfig))
	for _, r := range p.RulesConfig {
		if _, dup := ruleIDs[r.ID]; dup {
			return fmt.Errorf("規則 ID 重複: %s", r.ID)
		}
		ruleIDs[r.ID] = struct{}{}
	}

	return nil
}

// validate 僅在啟用 DNS 時檢查上游地址與 fakeip 網段
func (c DNSConfig) validate() error {
	if !c.Enable {
		return nil
	}
	servers := []struct{ field, addr string }{
		{"local-dns", c.LocalDNS},
		{"remote-dns", c.RemoteDNS},
		{"resolver-dns", c.ResolverDNS},
		{"remote-resolver-dns", c.RemoteResolverDNS},
	}
	for _, srv := range servers {
		if err := validator.ValidateDNSAddress(srv.field, srv.addr); err != nil {
			return err
		}
	}
	if c.FakeIP {
		if err := validator.ValidateCIDR("fake-ip-range-v4", c.FakeIPRangeV4); err != nil {
			return err
		}
		if c.FakeIPRangeV6 != "" {
			if err := validator.ValidateCIDR("fake-ip-range-v6", c.FakeIPRangeV6); err != nil {
				return err
			}
		}
	}
	return nil
}

// DefaultProxyTag 第一個代理組的 Tag，作為 DNS 與全局模式的默認代理
// 沒有代理組時回退到 direct
func (p *Profile) DefaultProxyTag() string {
	if len(p.ProxyGroupsConfig) == 0 {
		return "direct"
	}
	return p.ProxyGroupsConfig[0].Tag
}

// DeepCopy 深拷貝 (序列化回環)
func (p *Profile) DeepCopy() *Profile {
	if p == nil {
		return nil
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		panic(fmt.Errorf("DeepCopy 序列化失敗 (這是一個 Bug): %w", err))
	}

	var cp Profile
	if err := yaml.Unmarshal(data, &cp); err != nil {
		panic(fmt.Errorf("DeepCopy 反序列化失敗 (這是一個 Bug): %w", err))
	}
	return &cp
}

// EncryptSensitiveFields 加密控制面板密鑰
func (p *Profile) EncryptSensitiveFields(encryptor *crypto.Encryptor) error {
	secret := p.AdvancedConfig.Secret
	if secret == "" || crypto.IsEncrypted(secret) {
		return nil
	}
	enc, err := encryptor.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("加密 secret 失敗: %w", err)
	}
	p.AdvancedConfig.Secret = enc
	return nil
}

// DecryptSensitiveFields 解密控制面板密鑰
func (p *Profile) DecryptSensitiveFields(encryptor *crypto.Encryptor) error {
	secret := p.AdvancedConfig.Secret
	if !crypto.IsEncrypted(secret) {
		return nil
	}
	dec, err := encryptor.Decrypt(secret)
	if err != nil {
		return fmt.Errorf("解密 secret 失敗: %w", err)
	}
	p.AdvancedConfig.Secret = dec
	return nil
}
