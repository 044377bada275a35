// Package sanitize normalizes untrusted form input by declared field type.
//
// Every validating function either returns a value that satisfies its type
// or a domain.ValidationError; it never hands back a half-cleaned value.
package sanitize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"leadengine/internal/domain"
	"leadengine/internal/utils"

	"github.com/go-playground/validator/v10"
)

const (
	MaxTextLength   = 1000
	MaxEmailLength  = 254
	MaxPhoneLength  = 20
	MaxSearchLength = 200
)

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsScheme      = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+\s*=`)
	emailShape    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneJunk     = regexp.MustCompile(`[^0-9+\s\-()]`)
	httpScheme    = regexp.MustCompile(`(?i)^https?://`)
	searchJunk    = regexp.MustCompile(`[<>'"]`)

	validate = validator.New()
)

// Text trims the input and strips markup-looking fragments, then caps it at
// MaxTextLength runes. Stripping repeats until nothing changes, so the
// result is stable under a second pass.
func Text(input string) string {
	if input == "" {
		return ""
	}
	s := strings.TrimSpace(input)
	for {
		next := stripOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(utils.Truncate(s, MaxTextLength))
}

func stripOnce(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "\x00", "")
}

// Email lower-cases and trims, then requires a local@domain.tld shape.
func Email(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", domain.ValidationError{Msg: "required"}
	}
	s := strings.ToLower(strings.TrimSpace(input))
	if !emailShape.MatchString(s) || len(s) > MaxEmailLength {
		return "", domain.ValidationError{Msg: "invalid email"}
	}
	return s, nil
}

// Phone keeps digits, '+', spaces, hyphens and parentheses. Empty input is
// allowed; a phone is only required when the caller says so.
func Phone(input string) (string, error) {
	if input == "" {
		return "", nil
	}
	s := strings.TrimSpace(phoneJunk.ReplaceAllString(input, ""))
	if len(s) > MaxPhoneLength {
		return "", domain.ValidationError{Msg: "invalid phone"}
	}
	return s, nil
}

// Number parses strings and passes numeric values through.
func Number(input any) (float64, error) {
	var n float64
	switch v := input.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case int32:
		n = float64(v)
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		if err != nil {
			return 0, domain.ValidationError{Msg: "invalid number", Err: err}
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, domain.ValidationError{Msg: "invalid number", Err: err}
		}
		n = f
	default:
		return 0, domain.ValidationError{Msg: fmt.Sprintf("invalid number type %T", input)}
	}
	if math.IsNaN(n) {
		return 0, domain.ValidationError{Msg: "invalid number"}
	}
	return n, nil
}

// URL requires an http(s) scheme and a structurally valid URL.
// Empty input yields empty output.
func URL(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", nil
	}
	if !httpScheme.MatchString(s) {
		return "", domain.ValidationError{Msg: "invalid url: must start with http:// or https://"}
	}
	if err := validate.Var(s, "url"); err != nil {
		return "", domain.ValidationError{Msg: "malformed url", Err: err}
	}
	return s, nil
}

// Search cleans a free-text listing query.
func Search(query string) string {
	if query == "" {
		return ""
	}
	s := searchJunk.ReplaceAllString(strings.TrimSpace(query), "")
	return strings.TrimSpace(utils.Truncate(s, MaxSearchLength))
}
