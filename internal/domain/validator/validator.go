package validator

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
)

// 預編譯正則表達式，避免在熱路徑中重複編譯
var (
	// TLD 驗證：至少 2 個字母
	reTLD = regexp.MustCompile(`^[a-zA-Z]{2,}$`)
	// Label 驗證：字母、數字、連字號
	reLabel = regexp.MustCompile(`^[a-zA-Z0-9\-]+$`)
)

// MaxPayloadLength 單條規則內容的最大長度
const MaxPayloadLength = 4096

// ValidationError 驗證錯誤
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateDomain 驗證域名格式
func ValidateDomain(domain string) bool {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return false
	}

	// 不允許純 IP
	if net.ParseIP(domain) != nil {
		return false
	}

	if !strings.Contains(domain, ".") {
		return false
	}

	// 總長度限制，不能以點開頭或結尾
	if len(domain) > 253 || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}

	labels := strings.Split(domain, ".")
	if !reTLD.MatchString(labels[len(labels)-1]) {
		return false
	}

	// 每個 label 長度 1–63，不能以連字號開頭或結尾
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if !reLabel.MatchString(label) {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}

	return true
}

// DNS 上游地址支持的協議
var dnsSchemes = map[string]bool{
	"tcp":   true,
	"udp":   true,
	"tls":   true,
	"https": true,
	"h3":    true,
	"quic":  true,
	"dhcp":  true,
	"rcode": true,
}

// ValidateDNSAddress 驗證 sing-box DNS 服務器地址
// 支持 IP、IP:端口、域名、scheme://host[:port][/path] 以及 local / fakeip
func ValidateDNSAddress(field, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return &ValidationError{Field: field, Message: "地址不能為空"}
	}
	if address == "local" || address == "fakeip" {
		return nil
	}

	host := address
	if strings.Contains(address, "://") {
		u, err := url.Parse(address)
		if err != nil {
			return &ValidationError{Field: field, Message: fmt.Sprintf("地址格式無效: %v", err)}
		}
		if !dnsSchemes[u.Scheme] {
			return &ValidationError{Field: field, Message: fmt.Sprintf("不支持的協議: %s", u.Scheme)}
		}
		// dhcp://auto、rcode://success 等不需要校驗主機
		if u.Scheme == "dhcp" || u.Scheme == "rcode" {
			if u.Host == "" {
				return &ValidationError{Field: field, Message: "缺少參數"}
			}
			return nil
		}
		host = u.Host
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if net.ParseIP(host) != nil || ValidateDomain(host) {
		return nil
	}
	return &ValidationError{Field: field, Message: fmt.Sprintf("無效的主機: %q", host)}
}

// ValidateCIDR 驗證 CIDR 網段
func ValidateCIDR(field, cidr string) error {
	if _, err := netip.ParsePrefix(strings.TrimSpace(cidr)); err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("無效的網段: %q", cidr)}
	}
	return nil
}

// ValidateLength 驗證字符串長度
func ValidateLength(input string, maxLen int, fieldName string) error {
	if len(input) > maxLen {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("長度超過限制（最大 %d 字符，當前 %d 字符）", maxLen, len(input)),
		}
	}
	return nil
}

// SanitizeInput 清理輸入（移除控制字符）
func SanitizeInput(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizePayload 清理規則內容並驗證長度，返回處理後的值
func NormalizePayload(payload string) (string, error) {
	payload = strings.TrimSpace(SanitizeInput(payload))
	if payload == "" {
		return "", &ValidationError{Field: "payload", Message: "內容不能為空"}
	}
	if err := ValidateLength(payload, MaxPayloadLength, "payload"); err != nil {
		return "", err
	}
	return payload, nil
}
