package target

import (
	"fmt"
	"strings"
)

// ParseRule selects how a fetched body is turned into a target host.
type ParseRule string

const (
	// RuleFirstLine takes the first non-empty line, trimmed.
	RuleFirstLine ParseRule = "first-line"

	// RuleFirstToken skips blank and comment lines and takes the first
	// whitespace-delimited token before any inline comment marker.
	RuleFirstToken ParseRule = "first-token"
)

// DefaultCommentMarker starts a comment for RuleFirstToken.
const DefaultCommentMarker = "#"

// ParseParseRule validates a rule name. Empty selects RuleFirstLine.
func ParseParseRule(s string) (ParseRule, error) {
	switch ParseRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", RuleFirstLine:
		return RuleFirstLine, nil
	case RuleFirstToken:
		return RuleFirstToken, nil
	default:
		return "", fmt.Errorf("unknown parse rule %q (expected %s or %s)", s, RuleFirstLine, RuleFirstToken)
	}
}

// Extract applies rule to body. It reports false when the body yields no
// candidate host.
func Extract(body string, rule ParseRule, commentMarker string) (string, bool) {
	if commentMarker == "" {
		commentMarker = DefaultCommentMarker
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if rule != RuleFirstToken {
			return line, true
		}

		if strings.HasPrefix(line, commentMarker) {
			continue
		}
		if i := strings.Index(line, commentMarker); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		return fields[0], true
	}
	return "", false
}
