package gateway

import (
	"strings"
	"unicode"
)

// Policy decides which statements the gateway is willing to run.
type Policy struct {
	// Enabled turns the gateway on. A disabled gateway refuses everything.
	Enabled bool
	// Allow lists accepted leading keywords in lower case. Empty accepts all.
	Allow []string
}

// Check returns a KindForbidden error when statement is not permitted.
func (p Policy) Check(statement string) error {
	if !p.Enabled {
		return &Error{Kind: KindForbidden, Message: "the SQL gateway is disabled"}
	}
	if len(p.Allow) == 0 {
		return nil
	}
	kw := LeadingKeyword(statement)
	for _, a := range p.Allow {
		if a == kw {
			return nil
		}
	}
	return &Error{Kind: KindForbidden, Message: "statement type is not allowed: " + quoteKeyword(kw)}
}

// LeadingKeyword returns the first word of statement in lower case.
func LeadingKeyword(statement string) string {
	s := strings.TrimSpace(statement)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end >= 0 {
		s = s[:end]
	}
	return strings.ToLower(s)
}

func quoteKeyword(kw string) string {
	if kw == "" {
		return "(empty)"
	}
	return kw
}
