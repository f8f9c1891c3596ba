package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yat-Muk/prism-desk/internal/pkg/crypto"
)

func TestNew(t *testing.T) {
	p1 := New("Home")
	p2 := New("Work")

	assert.NotEmpty(t, p1.ID)
	assert.NotEqual(t, p1.ID, p2.ID)
	assert.Equal(t, "Home", p1.Name)
	assert.Equal(t, ModeRule, p1.GeneralConfig.Mode)
	assert.NoError(t, p1.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *Profile)
		wantErr bool
	}{
		{"默認配置有效", func(p *Profile) {}, false},
		{"空 ID", func(p *Profile) { p.ID = "" }, true},
		{"無效模式", func(p *Profile) { p.GeneralConfig.Mode = "tun" }, true},
		{"端口超出範圍", func(p *Profile) { p.AdvancedConfig.SocksPort = 70000 }, true},
		{"負數端口", func(p *Profile) { p.GeneralConfig.MixedPort = -1 }, true},
		{"代理組 ID 重複", func(p *Profile) {
			p.ProxyGroupsConfig = []ProxyGroup{{ID: "g1", Tag: "A"}, {ID: "g1", Tag: "B"}}
		}, true},
		{"DNS 地址無效", func(p *Profile) { p.DNSConfig.RemoteDNS = "ftp://8.8.8.8" }, true},
		{"DNS 關閉時不檢查地址", func(p *Profile) {
			p.DNSConfig.Enable = false
			p.DNSConfig.RemoteDNS = ""
		}, false},
		{"fakeip 網段無效", func(p *Profile) {
			p.DNSConfig.FakeIP = true
			p.DNSConfig.FakeIPRangeV4 = "198.18.0.1"
		}, true},
		{"規則 ID 重複", func(p *Profile) {
			p.RulesConfig = []Rule{{ID: "r1"}, {ID: "r1"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("test")
			tt.modify(p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultProxyTag(t *testing.T) {
	p := Default()
	assert.Equal(t, "direct", p.DefaultProxyTag())

	p.ProxyGroupsConfig = []ProxyGroup{{ID: "g1", Tag: "Proxy"}, {ID: "g2", Tag: "Auto"}}
	assert.Equal(t, "Proxy", p.DefaultProxyTag())
}

func TestDeepCopy(t *testing.T) {
	p := New("orig")
	p.ProxyGroupsConfig = []ProxyGroup{{ID: "g1", Tag: "Proxy", Use: []string{"sub1"}}}

	cp := p.DeepCopy()
	require.NotNil(t, cp)

	cp.Name = "changed"
	cp.ProxyGroupsConfig[0].Use[0] = "sub2"
	cp.DNSConfig.FakeIPFilter[0] = "x"

	assert.Equal(t, "orig", p.Name)
	assert.Equal(t, "sub1", p.ProxyGroupsConfig[0].Use[0])
	assert.Equal(t, "lan", p.DNSConfig.FakeIPFilter[0])

	var nilProfile *Profile
	assert.Nil(t, nilProfile.DeepCopy())
}

func TestSensitiveFields(t *testing.T) {
	enc, err := crypto.NewEncryptorFromKey(make([]byte, crypto.KeySize))
	require.NoError(t, err)

	p := New("secret")
	p.AdvancedConfig.Secret = "s3cret"

	require.NoError(t, p.EncryptSensitiveFields(enc))
	assert.True(t, crypto.IsEncrypted(p.AdvancedConfig.Secret))

	// 重複加密不改變結果
	encrypted := p.AdvancedConfig.Secret
	require.NoError(t, p.EncryptSensitiveFields(enc))
	assert.Equal(t, encrypted, p.AdvancedConfig.Secret)

	require.NoError(t, p.DecryptSensitiveFields(enc))
	assert.Equal(t, "s3cret", p.AdvancedConfig.Secret)

	// 空 secret 保持為空
	empty := New("empty")
	require.NoError(t, empty.EncryptSensitiveFields(enc))
	assert.Empty(t, empty.AdvancedConfig.Secret)
}
