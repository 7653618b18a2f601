package agent

import (
	"net/mail"
	"strings"
)

// bareAddress strips the display name from a sender header, returning only
// the address-spec. Unparsable headers come back trimmed as-is.
func bareAddress(header string) string {
	addr, err := mail.ParseAddress(header)
	if err == nil {
		return addr.Address
	}
	// 解析失败时手动剥离尖括号
	if start := strings.Index(header, "<"); start >= 0 {
		if end := strings.Index(header[start:], ">"); end > 0 {
			return header[start+1 : start+end]
		}
	}
	return strings.TrimSpace(header)
}
