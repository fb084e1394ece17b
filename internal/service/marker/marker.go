// Package marker implements the restricted applicability expression
// language of download manifests: comparisons `attribute == "literal"`
// over the three platform attributes, combined with `and`. Nothing else
// is accepted -- no `or`, no parentheses, no inequality.
package marker

import (
	"fmt"
	"strings"

	"github.com/jgivc/downloadset/internal/common"
	"github.com/jgivc/downloadset/internal/entity"
)

type clause struct {
	attr  string
	value string
}

// Marker is one parsed marker expression: a conjunction of
// attribute-equality clauses. Zero value is never produced by Parse.
type Marker struct {
	Orig    string
	clauses []clause
}

// Parse validates a marker expression and returns its clause list.
func Parse(s string) (Marker, error) {
	if strings.Contains(s, " or ") {
		return Marker{}, fmt.Errorf("%w: only `and` is supported, repeat `marker =` lines for alternatives: %q",
			common.ErrMarkerSyntax, s)
	}

	m := Marker{Orig: s}
	for _, chunk := range strings.Split(s, " and ") {
		parts := strings.Fields(chunk)
		if len(parts) != 3 {
			return Marker{}, fmt.Errorf("%w: expected `attribute == \"value\"`, got %q",
				common.ErrMarkerSyntax, chunk)
		}

		attr, op, lit := parts[0], parts[1], parts[2]

		if _, ok := (entity.PlatformFacts{}).Lookup(attr); !ok {
			return Marker{}, fmt.Errorf("%w: unknown attribute %q (os_name|sys_platform|platform_machine)",
				common.ErrMarkerSyntax, attr)
		}

		if op != "==" && op != "=" {
			return Marker{}, fmt.Errorf("%w: unsupported operator %q in %q", common.ErrMarkerSyntax, op, chunk)
		}

		if len(lit) < 2 || !strings.HasPrefix(lit, `"`) || !strings.HasSuffix(lit, `"`) {
			return Marker{}, fmt.Errorf("%w: value must be double-quoted in %q", common.ErrMarkerSyntax, chunk)
		}

		m.clauses = append(m.clauses, clause{attr: attr, value: lit[1 : len(lit)-1]})
	}

	return m, nil
}

// Evaluate reports whether every clause of the expression matches the
// given facts. Pure function, deterministic for the same facts.
func (m Marker) Evaluate(facts entity.PlatformFacts) bool {
	for _, c := range m.clauses {
		v, ok := facts.Lookup(c.attr)
		if !ok || v != c.value {
			return false
		}
	}

	return true
}
