package kernel

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yat-Muk/prism-desk/internal/pkg/errors"
)

// Executor 命令執行器接口
type Executor interface {
	// Execute 執行命令
	Execute(ctx context.Context, name string, args ...string) (string, error)

	// IsAllowed 檢查命令是否在白名單中
	IsAllowed(name string) bool
}

// SafeExecutor 只允許執行內核程序的命令執行器
type SafeExecutor struct {
	allowlist map[string]bool
	logger    *zap.Logger
}

// NewExecutor 創建命令執行器，extra 為額外允許的程序名
func NewExecutor(logger *zap.Logger, extra ...string) Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowlist := map[string]bool{
		"sing-box":     true,
		"sing-box.exe": true,
	}
	for _, name := range extra {
		allowlist[filepath.Base(name)] = true
	}
	return &SafeExecutor{allowlist: allowlist, logger: logger}
}

// Execute 執行命令
func (e *SafeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	if !e.IsAllowed(name) {
		return "", errors.New("SYS001", fmt.Sprintf("命令 %q 不在白名單中", name))
	}

	cmd := exec.CommandContext(ctx, name, args...)
	// 子進程繼承輸出管道時，超時後不再無限等待
	cmd.WaitDelay = time.Second

	e.logger.Debug("執行命令",
		zap.String("cmd", name),
		zap.Strings("args", args),
	)

	output, err := cmd.CombinedOutput()
	outputStr := strings.TrimSpace(string(output))

	if err != nil {
		e.logger.Error("命令執行失敗",
			zap.String("cmd", name),
			zap.Strings("args", args),
			zap.String("output", outputStr),
			zap.Error(err),
		)
		return outputStr, errors.Wrap(err, "SYS002", "命令執行失敗")
	}

	e.logger.Debug("命令執行成功",
		zap.String("cmd", name),
		zap.String("output", outputStr),
	)
	return outputStr, nil
}

// IsAllowed 按程序文件名匹配白名單
func (e *SafeExecutor) IsAllowed(name string) bool {
	if name == "" {
		return false
	}
	return e.allowlist[filepath.Base(name)]
}

// Checker 用內核的 check 子命令驗證配置文件
type Checker struct {
	exec    Executor
	binary  string
	timeout time.Duration
}

func NewChecker(exec Executor, binary string, timeout time.Duration) *Checker {
	if binary == "" {
		binary = "sing-box"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Checker{exec: exec, binary: binary, timeout: timeout}
}

// Check 在 workDir 下檢查 configPath
func (c *Checker) Check(ctx context.Context, configPath, workDir string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	output, err := c.exec.Execute(ctx, c.binary, "check", "-c", configPath, "-D", workDir)
	if err != nil {
		if output != "" {
			return fmt.Errorf("配置無效:\n%s: %w", output, err)
		}
		return fmt.Errorf("配置檢查失敗: %w", err)
	}
	return nil
}
