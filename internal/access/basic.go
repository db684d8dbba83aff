package access

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

const basicScheme = "Basic "

// DecodeBasic parses an Authorization header carrying a Basic credential.
// The header must start with the literal "Basic " tag, the remainder must be
// valid base64, and the decoded payload must be text containing at least one
// colon. The payload splits on the first colon only, so passwords may
// themselves contain colons. Every violation yields ok=false.
func DecodeBasic(header string) (email, password string, ok bool) {
	if !strings.HasPrefix(header, basicScheme) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(basicScheme):])
	if err != nil {
		return "", "", false
	}
	if !utf8.Valid(decoded) {
		return "", "", false
	}
	payload := string(decoded)
	idx := strings.Index(payload, ":")
	if idx < 0 {
		return "", "", false
	}
	return payload[:idx], payload[idx+1:], true
}
