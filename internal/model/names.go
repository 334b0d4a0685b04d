package model

import "strings"

// MemberSeparator joins a container FQN to a member name.
const MemberSeparator = "::"

// ShortName returns the part of an FQN after the last member separator,
// falling back to the last namespace segment for plain type names.
func ShortName(fqn string) string {
	if i := strings.LastIndex(fqn, MemberSeparator); i >= 0 {
		return fqn[i+len(MemberSeparator):]
	}
	if i := strings.LastIndexByte(fqn, '\\'); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}

// ContainerFQN returns the container part of a member FQN, or "" when the
// FQN has no member separator.
func ContainerFQN(fqn string) string {
	if i := strings.LastIndex(fqn, MemberSeparator); i >= 0 {
		return fqn[:i]
	}
	return ""
}

// StripCallSuffix removes a trailing "()" from a query fragment.
func StripCallSuffix(s string) string {
	return strings.TrimSuffix(s, "()")
}

// SplitTokens breaks an identifier or FQN into normalized lower-cased
// fragments, splitting on namespace separators, member separators,
// snake_case underscores and camelCase boundaries.
func SplitTokens(s string) []string {
	var tokens []string
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '\\' || r == ':' || r == '_' || r == '.' || r == '/' || r == '$' || r == '(' || r == ')'
	}) {
		tokens = append(tokens, splitCamel(seg)...)
	}
	return tokens
}

func splitCamel(s string) []string {
	var out []string
	start := 0
	for i := 1; i < len(s); i++ {
		if isUpper(s[i]) && !isUpper(s[i-1]) {
			out = append(out, strings.ToLower(s[start:i]))
			start = i
		}
	}
	if start < len(s) {
		out = append(out, strings.ToLower(s[start:]))
	}
	return out
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
