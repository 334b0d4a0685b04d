package graph

import (
	"strings"

	"kloc/internal/model"
)

// trieResultCap bounds fuzzy-stage result sets.
const trieResultCap = 50

type resolveStage struct {
	name string
	run  func(s *Store, query string) []string
}

// Resolution stages in precedence order. The first stage producing any hit
// wins; later stages are never consulted. Exact lookups always beat fuzzy
// ones, so resolving a full FQN can never be shadowed by an unrelated
// fuzzy match.
var resolveStages = []resolveStage{
	{"fqn_exact", func(s *Store, q string) []string {
		return s.fqnIndex[q]
	}},
	{"fqn_fold", func(s *Store, q string) []string {
		return s.fqnLower[strings.ToLower(q)]
	}},
	{"trie_suffix", func(s *Store, q string) []string {
		return s.search.SearchSuffix(q, trieResultCap)
	}},
	{"trie_contains", func(s *Store, q string) []string {
		return s.search.SearchContains(q, trieResultCap)
	}},
	{"fqn_suffix_scan", func(s *Store, q string) []string {
		memberSuffix := model.MemberSeparator + q
		var hits []string
		for _, id := range s.order {
			fqn := s.nodes[id].FQN
			if strings.HasSuffix(fqn, q) || strings.HasSuffix(fqn, memberSuffix) {
				hits = append(hits, id)
			}
		}
		return hits
	}},
	{"short_name", func(s *Store, q string) []string {
		return s.nameIndex[shortQuery(q)]
	}},
	{"short_name_call", func(s *Store, q string) []string {
		stripped := model.StripCallSuffix(shortQuery(q))
		return s.nameIndex[stripped]
	}},
}

// ResolveSymbol resolves a user-supplied symbol query to candidate nodes.
// An empty result is a valid outcome, never an error.
func (s *Store) ResolveSymbol(query string) []*model.Node {
	query = strings.TrimPrefix(query, "\\")
	if query == "" {
		return nil
	}
	for _, stage := range resolveStages {
		if ids := stage.run(s, query); len(ids) > 0 {
			return s.toNodes(dedupe(ids))
		}
	}
	return nil
}

// shortQuery extracts the member part of a query ("Foo::bar" -> "bar"),
// or returns the query unchanged when it has no member separator.
func shortQuery(q string) string {
	if i := strings.LastIndex(q, model.MemberSeparator); i >= 0 {
		return q[i+len(model.MemberSeparator):]
	}
	return q
}

// dedupe removes duplicate ids, preserving first-occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
