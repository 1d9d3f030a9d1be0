package core

import (
	"regexp"
	"strings"
)

var verbExpr = regexp.MustCompile(`(?i)^\s*(get|post|put|patch|delete|options|head|trace)\s+(\S.*)$`)

// DetectedVerb is the result of DetectVerb.
type DetectedVerb struct {
	Verb     string // lower-case, empty when no verb prefix was found
	Original string // input with the verb prefix removed
}

// DetectVerb splits an optional HTTP verb prefix off a path or action id:
// "post /users" yields {post, /users}; "/users" and "index" come back unchanged.
func DetectVerb(s string) DetectedVerb {
	m := verbExpr.FindStringSubmatch(s)
	if m == nil {
		return DetectedVerb{Original: s}
	}
	return DetectedVerb{Verb: strings.ToLower(m[1]), Original: strings.TrimSpace(m[2])}
}
