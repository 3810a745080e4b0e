package utils

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP 无法确定客户端 IP 时的占位值，匹配侧遇到它直接放弃
const UnknownIP = "unknown"

// 代理头的取值顺序，X-Forwarded-For 取链路第一跳
var proxyHeaders = []string{
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
}

// ClientIP 提取服务端观察到的客户端 IP。
// 访问记录和匹配两侧必须走同一个提取逻辑，否则 IP 对不上。
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
		if first != "" {
			return first
		}
	}

	for _, header := range proxyHeaders {
		if val := strings.TrimSpace(r.Header.Get(header)); val != "" {
			return val
		}
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return UnknownIP
}

// TruncateUserAgent 截断 UA，保证存储和比较长度一致
func TruncateUserAgent(ua string, maxLen int) string {
	if maxLen > 0 && len(ua) > maxLen {
		return ua[:maxLen]
	}
	return ua
}
