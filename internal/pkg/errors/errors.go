package errors

import (
	"errors"
	"fmt"
)

// 預定義錯誤類型
var (
	// Profile 相關
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileInvalid  = errors.New("profile is invalid")

	// 文件相關
	ErrBlobNotFound = errors.New("file not found")

	// 規則集相關
	ErrRulesetKindInvalid = errors.New("invalid local ruleset kind")
)

// Error 自定義錯誤類型
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 創建新錯誤
func New(code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap 包裝錯誤
func Wrap(err error, code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf 取出錯誤鏈中第一個自定義錯誤的代碼
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is 同標準庫 errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}
