package appctx

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings 程序自身的運行參數（與 Profile 無關）
type Settings struct {
	WorkDir string         `mapstructure:"work_dir"`
	Log     LogSettings    `mapstructure:"log"`
	Store   StoreSettings  `mapstructure:"store"`
	Cache   CacheSettings  `mapstructure:"cache"`
	Secrets SecretSettings `mapstructure:"secrets"`
	Kernel  KernelSettings `mapstructure:"kernel"`
}

type LogSettings struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type StoreSettings struct {
	// Debounce 合併連續寫入的時間窗口
	Debounce time.Duration `mapstructure:"debounce"`
}

type CacheSettings struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type SecretSettings struct {
	Encrypt       bool   `mapstructure:"encrypt"`
	MasterKeyPath string `mapstructure:"master_key_path"`
}

type KernelSettings struct {
	Binary       string        `mapstructure:"binary"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
}

// NewViper 創建帶默認值與環境變量綁定的 viper 實例
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("prism")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("data")

	v.SetEnvPrefix("PRISM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("work_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("store.debounce", "100ms")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("secrets.encrypt", false)
	v.SetDefault("secrets.master_key_path", "")
	v.SetDefault("kernel.binary", "sing-box")
	v.SetDefault("kernel.check_timeout", "10s")
}

// LoadSettings 讀取配置文件（可選）並解析
func LoadSettings(v *viper.Viper) (*Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("讀取 prism.yaml 失敗: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("解析運行參數失敗: %w", err)
	}

	if s.Store.Debounce < 0 {
		return nil, fmt.Errorf("store.debounce 不能為負數: %s", s.Store.Debounce)
	}
	return &s, nil
}
