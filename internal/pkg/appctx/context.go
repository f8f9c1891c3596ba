package appctx

import (
	"fmt"
	"os"
	"path/filepath"
)

// 工作目錄下的相對路徑，與 GUI 前端保持一致
const (
	ProfilesFile     = "data/profiles.yaml"
	SubscribesFile   = "data/subscribes.yaml"
	RulesetsFile     = "data/rulesets.yaml"
	KernelConfigFile = "data/sing-box/config.json"
	LocalRulesetDir  = "data/rulesets"
)

// Paths 定義應用程序所有的關鍵路徑
type Paths struct {
	BaseDir   string
	DataDir   string
	LogDir    string
	KernelDir string

	LogFile       string
	MasterKeyFile string
}

// NewPaths 以 baseDir 為工作目錄，為空時使用當前目錄
func NewPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("無法獲取當前目錄: %w", err)
		}
		baseDir = wd
	}

	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("無法解析絕對路徑: %w", err)
	}

	dataDir := filepath.Join(absPath, "data")
	paths := &Paths{
		BaseDir:       absPath,
		DataDir:       dataDir,
		LogDir:        filepath.Join(dataDir, "logs"),
		KernelDir:     filepath.Join(dataDir, "sing-box"),
		LogFile:       filepath.Join(dataDir, "logs", "prism.log"),
		MasterKeyFile: filepath.Join(dataDir, ".masterkey"),
	}

	for _, dir := range []string{paths.DataDir, paths.LogDir, paths.KernelDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("無法創建目錄 %s: %w", dir, err)
		}
	}

	return paths, nil
}

// Abs 將工作目錄相對路徑轉為絕對路徑
func (p *Paths) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.BaseDir, filepath.FromSlash(rel))
}
