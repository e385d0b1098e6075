// Package hostlist expands and compresses host-list expressions such as
// "n[1-4,09-10],login1".
package hostlist

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxHosts bounds the number of hosts a single expression may expand to
const MaxHosts = 1 << 18

var (
	// ErrMalformed is returned for expressions with unbalanced brackets or bad ranges
	ErrMalformed = errors.New("malformed host list")

	// ErrTooLarge is returned when an expression expands past MaxHosts
	ErrTooLarge = errors.New("host list too large")
)

// Expand returns every host named by expr, in expression order
func Expand(expr string) ([]string, error) {
	var hosts []string
	for _, tok := range split(expr) {
		expanded, err := expandToken(tok, MaxHosts-len(hosts))
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", expr, err)
		}
		hosts = append(hosts, expanded...)
	}
	return hosts, nil
}

// First returns the first host of expr, or "" if expr is empty or malformed
func First(expr string) string {
	toks := split(expr)
	if len(toks) == 0 {
		return ""
	}
	hosts, err := expandToken(toks[0], MaxHosts)
	if err != nil || len(hosts) == 0 {
		return ""
	}
	return hosts[0]
}

// Contains reports whether host is one of the hosts named by expr
func Contains(expr, host string) (bool, error) {
	hosts, err := Expand(expr)
	if err != nil {
		return false, err
	}
	for _, h := range hosts {
		if h == host {
			return true, nil
		}
	}
	return false, nil
}

// split breaks expr on commas and whitespace outside of brackets
func split(expr string) []string {
	var toks []string
	depth, start := 0, 0
	flush := func(end int) {
		if tok := strings.TrimSpace(expr[start:end]); tok != "" {
			toks = append(toks, tok)
		}
	}
	for i, c := range expr {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case ',', ' ', '\t', '\n':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(expr))
	return toks
}

func expandToken(tok string, budget int) ([]string, error) {
	open := strings.IndexByte(tok, '[')
	if open < 0 {
		if strings.IndexByte(tok, ']') >= 0 {
			return nil, ErrMalformed
		}
		return []string{tok}, nil
	}
	end := strings.IndexByte(tok[open:], ']')
	if end < 0 || strings.IndexByte(tok[:open], ']') >= 0 {
		return nil, ErrMalformed
	}
	end += open
	inner := tok[open+1 : end]
	if strings.IndexByte(inner, '[') >= 0 {
		return nil, ErrMalformed
	}

	values, err := parseRanges(inner, budget)
	if err != nil {
		return nil, err
	}
	rest, err := expandToken(tok[end+1:], budget)
	if err != nil {
		return nil, err
	}
	if len(values)*len(rest) > budget {
		return nil, ErrTooLarge
	}

	prefix := tok[:open]
	hosts := make([]string, 0, len(values)*len(rest))
	for _, v := range values {
		for _, r := range rest {
			hosts = append(hosts, prefix+v+r)
		}
	}
	return hosts, nil
}

// parseRanges expands "1-3,07,10-11" keeping the zero padding of each lower bound
func parseRanges(s string, budget int) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			hi = lo
		}
		if !isDigits(lo) || !isDigits(hi) {
			return nil, ErrMalformed
		}
		from, _ := strconv.Atoi(lo)
		to, _ := strconv.Atoi(hi)
		if to < from {
			return nil, ErrMalformed
		}
		if len(out)+to-from+1 > budget {
			return nil, ErrTooLarge
		}
		width := len(lo)
		for n := from; n <= to; n++ {
			out = append(out, fmt.Sprintf("%0*d", width, n))
		}
	}
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type numbered struct {
	n   int
	raw string
}

// Compress folds hosts into the shortest bracketed expression, grouping by
// the non-numeric prefix. Groups are ordered by prefix.
func Compress(hosts []string) string {
	groups := make(map[string][]numbered)
	var plain []string
	for _, h := range hosts {
		i := len(h)
		for i > 0 && h[i-1] >= '0' && h[i-1] <= '9' {
			i--
		}
		if i == len(h) {
			plain = append(plain, h)
			continue
		}
		n, err := strconv.Atoi(h[i:])
		if err != nil {
			plain = append(plain, h)
			continue
		}
		groups[h[:i]] = append(groups[h[:i]], numbered{n: n, raw: h[i:]})
	}

	prefixes := make([]string, 0, len(groups))
	for p := range groups {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	sort.Strings(plain)

	parts := make([]string, 0, len(prefixes)+len(plain))
	for _, p := range prefixes {
		parts = append(parts, compressGroup(p, groups[p]))
	}
	parts = append(parts, plain...)
	return strings.Join(parts, ",")
}

func compressGroup(prefix string, nums []numbered) string {
	sort.Slice(nums, func(i, j int) bool {
		if nums[i].n != nums[j].n {
			return nums[i].n < nums[j].n
		}
		return nums[i].raw < nums[j].raw
	})

	var ranges []string
	for i := 0; i < len(nums); {
		j := i
		width := len(nums[i].raw)
		for j+1 < len(nums) {
			next := nums[j+1]
			if next.raw == nums[j].raw {
				j++ // duplicate host
				continue
			}
			if next.n != nums[j].n+1 || fmt.Sprintf("%0*d", width, next.n) != next.raw {
				break
			}
			j++
		}
		if nums[i].n == nums[j].n {
			ranges = append(ranges, nums[i].raw)
		} else {
			ranges = append(ranges, nums[i].raw+"-"+nums[j].raw)
		}
		i = j + 1
	}

	if len(ranges) == 1 && !strings.Contains(ranges[0], "-") {
		return prefix + ranges[0]
	}
	return prefix + "[" + strings.Join(ranges, ",") + "]"
}
