package sanitize

import "regexp"

// The detectors only feed the security log. They are heuristics with false
// positives ("rent or buy = both ok") and must not be used to reject input.

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|EXECUTE)\b`),
	regexp.MustCompile(`(--|;|/\*|\*/|xp_|sp_)`),
	regexp.MustCompile(`(?i)(\bOR\b|\bAND\b).*[=<>]`),
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<img[^>]*onerror[^>]*>`),
}

// LooksLikeSQLInjection reports keyword or operator patterns typical of SQL injection.
func LooksLikeSQLInjection(input string) bool {
	return matchAny(sqlPatterns, input)
}

// LooksLikeXSS reports script, iframe or event-handler patterns.
func LooksLikeXSS(input string) bool {
	return matchAny(xssPatterns, input)
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	if s == "" {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
