// Package trie implements the fuzzy symbol-resolution index: forward and
// reverse character tries over lower-cased FQNs plus a token index over
// normalized identifier fragments. It is never authoritative; exact FQN
// lookup in the graph store always takes precedence.
package trie

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"kloc/internal/model"
)

// Index is the symbol search structure. Read-only after the last Insert.
type Index struct {
	forward *node
	reverse *node
	tokens  map[string][]string
	fqns    map[string]string // id -> lower-cased FQN
}

type node struct {
	children map[rune]*node
	ids      []string // ids terminating at this node
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// New creates an empty index.
func New() *Index {
	return &Index{
		forward: newNode(),
		reverse: newNode(),
		tokens:  make(map[string][]string),
		fqns:    make(map[string]string),
	}
}

// Insert registers a node id under its FQN.
func (x *Index) Insert(id, fqn string) {
	if fqn == "" {
		return
	}
	lower := strings.ToLower(fqn)
	x.fqns[id] = lower
	x.forward.insert(lower, id)
	x.reverse.insert(reverseString(lower), id)
	for _, tok := range model.SplitTokens(fqn) {
		x.tokens[tok] = append(x.tokens[tok], id)
	}
}

// SearchPrefix returns up to limit ids whose FQN starts with query.
func (x *Index) SearchPrefix(query string, limit int) []string {
	ids := x.forward.collect(strings.ToLower(query), limit*4)
	return x.rank(query, ids, limit)
}

// SearchSuffix returns up to limit ids whose FQN ends with query.
func (x *Index) SearchSuffix(query string, limit int) []string {
	ids := x.reverse.collect(reverseString(strings.ToLower(query)), limit*4)
	return x.rank(query, ids, limit)
}

// SearchContains returns up to limit ids whose FQN contains query as a
// substring. Candidates are gathered through the token index, then
// verified against the stored FQN.
func (x *Index) SearchContains(query string, limit int) []string {
	lower := strings.ToLower(query)
	seen := make(map[string]bool)
	var candidates []string

	addAll := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				candidates = append(candidates, id)
			}
		}
	}
	for _, tok := range model.SplitTokens(query) {
		addAll(x.tokens[tok])
	}
	for tok, ids := range x.tokens {
		if strings.Contains(tok, lower) {
			addAll(ids)
		}
	}

	verified := candidates[:0]
	for _, id := range candidates {
		if strings.Contains(x.fqns[id], lower) {
			verified = append(verified, id)
		}
	}
	return x.rank(query, verified, limit)
}

// rank orders candidate ids by Levenshtein similarity to the query
// (descending), FQN ascending as the deterministic tiebreak, and caps the
// result at limit.
func (x *Index) rank(query string, ids []string, limit int) []string {
	if len(ids) == 0 {
		return nil
	}
	lower := strings.ToLower(query)
	type scored struct {
		id    string
		fqn   string
		score float32
	}
	out := make([]scored, 0, len(ids))
	for _, id := range ids {
		fqn := x.fqns[id]
		sim, err := edlib.StringsSimilarity(lower, fqn, edlib.Levenshtein)
		if err != nil {
			sim = 0
		}
		out = append(out, scored{id: id, fqn: fqn, score: sim})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].fqn != out[j].fqn {
			return out[i].fqn < out[j].fqn
		}
		return out[i].id < out[j].id
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	result := make([]string, len(out))
	for i, s := range out {
		result[i] = s.id
	}
	return result
}

func (n *node) insert(key, id string) {
	cur := n
	for _, r := range key {
		next, ok := cur.children[r]
		if !ok {
			next = newNode()
			cur.children[r] = next
		}
		cur = next
	}
	cur.ids = append(cur.ids, id)
}

// collect walks to the prefix node and gathers every id in its subtree in
// deterministic (sorted-rune) order, up to max ids.
func (n *node) collect(prefix string, max int) []string {
	cur := n
	for _, r := range prefix {
		next, ok := cur.children[r]
		if !ok {
			return nil
		}
		cur = next
	}
	var out []string
	cur.gather(&out, max)
	return out
}

func (n *node) gather(out *[]string, max int) {
	if max > 0 && len(*out) >= max {
		return
	}
	*out = append(*out, n.ids...)
	runes := make([]rune, 0, len(n.children))
	for r := range n.children {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	for _, r := range runes {
		n.children[r].gather(out, max)
		if max > 0 && len(*out) >= max {
			return
		}
	}
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
