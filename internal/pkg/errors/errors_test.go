package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestWrapFunction 測試Wrap函數
func TestWrapFunction(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("Wrap保留原錯誤", func(t *testing.T) {
		wrapped := Wrap(baseErr, "PROFILE001", "context")
		assert.True(t, errors.Is(wrapped, baseErr))
	})

	t.Run("Wrap nil創建新錯誤", func(t *testing.T) {
		wrapped := Wrap(nil, "PROFILE001", "context")
		assert.Error(t, wrapped)
		assert.Contains(t, wrapped.Error(), "PROFILE001")
	})
}

// TestErrorFormatting 測試錯誤格式
func TestErrorFormatting(t *testing.T) {
	t.Run("錯誤包含代碼和消息", func(t *testing.T) {
		err := New("SINGBOX001", "配置不能為空")
		assert.Equal(t, "[SINGBOX001] 配置不能為空", err.Error())
	})

	t.Run("包裝錯誤包含原因", func(t *testing.T) {
		wrapped := Wrap(ErrProfileNotFound, "KERNEL001", "加載 Profile 失敗")
		assert.Equal(t, "[KERNEL001] 加載 Profile 失敗: profile not found", wrapped.Error())
	})
}

// TestSentinelErrors 測試預定義錯誤可被識別
func TestSentinelErrors(t *testing.T) {
	err := fmt.Errorf("edit p1: %w", Wrap(ErrProfileInvalid, "PROFILE002", "驗證失敗"))

	assert.True(t, errors.Is(err, ErrProfileInvalid))
	assert.False(t, errors.Is(err, ErrProfileNotFound))
}

// TestCodeOf 測試錯誤代碼提取
func TestCodeOf(t *testing.T) {
	t.Run("多層包裝取最外層代碼", func(t *testing.T) {
		err1 := New("Level1", "base error")
		err2 := Wrap(err1, "Level2", "context 2")
		assert.Equal(t, "Level2", CodeOf(fmt.Errorf("outer: %w", err2)))
	})

	t.Run("普通錯誤沒有代碼", func(t *testing.T) {
		assert.Empty(t, CodeOf(errors.New("plain")))
		assert.Empty(t, CodeOf(nil))
	})
}

func TestIs(t *testing.T) {
	err := Wrap(ErrBlobNotFound, "KERNEL002", "讀取失敗")
	assert.True(t, Is(err, ErrBlobNotFound))
	assert.False(t, Is(err, ErrProfileExists))
}
