// Package msm parses and evaluates minimum_should_match policies.
//
// The syntax is the one accepted by Elasticsearch match queries: an integer ("3"),
// a negative integer ("-2"), a percentage ("60%"), a negative percentage ("-25%"),
// or a chain of conditional terms ("2<-25% 9<-3"). A conditional "N<term" applies
// term only when there are more than N optional clauses; otherwise all clauses
// are required.
package msm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
)

// Policy is a parsed minimum_should_match expression (immutable).
// The zero value requires at least one clause to match.
type Policy struct {
	raw   string
	conds []conditional
	value *term
}

type conditional struct {
	upper int
	term  term
}

type term struct {
	n       int
	percent bool
}

// Parse validates s and returns the policy. An empty string yields the zero Policy.
func Parse(s string) (Policy, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Policy{}, nil
	}

	if !strings.Contains(raw, "<") {
		v, err := parseTerm(raw)
		if err != nil {
			return Policy{}, err
		}
		return Policy{raw: raw, value: &v}, nil
	}

	fields := strings.Fields(raw)
	conds := make([]conditional, 0, len(fields))
	prev := -1
	for _, f := range fields {
		left, right, ok := strings.Cut(f, "<")
		if !ok {
			return Policy{}, fmt.Errorf("%w: %q mixes conditional and plain terms", domain.ErrInvalidPolicy, raw)
		}
		upper, err := strconv.Atoi(left)
		if err != nil || upper < 0 {
			return Policy{}, fmt.Errorf("%w: bad clause bound %q", domain.ErrInvalidPolicy, left)
		}
		if upper <= prev {
			return Policy{}, fmt.Errorf("%w: clause bounds must increase (%d after %d)", domain.ErrInvalidPolicy, upper, prev)
		}
		prev = upper
		v, err := parseTerm(right)
		if err != nil {
			return Policy{}, err
		}
		conds = append(conds, conditional{upper: upper, term: v})
	}
	return Policy{raw: raw, conds: conds}, nil
}

// MustParse calls Parse and panics on error.
func MustParse(s string) Policy {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseTerm(s string) (term, error) {
	body, percent := strings.CutSuffix(s, "%")
	n, err := strconv.Atoi(body)
	if err != nil {
		return term{}, fmt.Errorf("%w: %q is not a number or percentage", domain.ErrInvalidPolicy, s)
	}
	if percent && (n > 100 || n < -100) {
		return term{}, fmt.Errorf("%w: percentage %q out of range", domain.ErrInvalidPolicy, s)
	}
	return term{n: n, percent: percent}, nil
}

// String returns the policy in its original syntax ("" for the zero Policy).
func (p Policy) String() string { return p.raw }

// IsZero reports whether no policy was configured.
func (p Policy) IsZero() bool { return p.raw == "" }

// Required returns how many of n optional clauses must match.
// The result is at least 1 when n > 0 and may exceed n, in which case nothing matches.
func (p Policy) Required(n int) int {
	if n <= 0 {
		return 0
	}
	result := n
	switch {
	case p.value != nil:
		result = p.value.eval(n)
	case len(p.conds) > 0:
		for _, c := range p.conds {
			if n <= c.upper {
				break
			}
			result = c.term.eval(n)
		}
	default:
		result = 1
	}
	return max(result, 1)
}

// Matches reports whether matched clauses out of n satisfy the policy.
func (p Policy) Matches(matched, n int) bool {
	if n <= 0 || matched <= 0 {
		return false
	}
	return matched >= p.Required(n)
}

func (s term) eval(n int) int {
	calc := s.n
	if s.percent {
		calc = n * s.n / 100
	}
	if s.n < 0 {
		return max(n+calc, 0)
	}
	return calc
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
