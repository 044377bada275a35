package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// Fingerprint hashes environment-observable strings (user agent, language,
// screen geometry, timezone, canvas sample, client IP) into a short id.
//
// It deters casual form abuse only. Collisions and spoofing are expected;
// never treat it as an identity.
func Fingerprint(parts ...string) string {
	empty := true
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			empty = false
			break
		}
	}
	if empty {
		return "anonymous_" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	var h int32
	for _, r := range strings.Join(parts, "|") {
		h = h*31 + int32(r)
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return strconv.FormatInt(n, 36)
}

// Identifier scopes a fingerprint to one action so each action type is
// limited independently.
func Identifier(fingerprint, action string) string {
	return fingerprint + "_" + action
}
