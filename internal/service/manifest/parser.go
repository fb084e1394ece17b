// Package manifest turns the ini-like download manifest text into a
// validated, conflict-free list of download actions for the current
// platform. Parsing and resolution are separate steps so the host can
// resolve every declared manifest before the first byte is fetched.
package manifest

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/jgivc/downloadset/internal/common"
	"github.com/jgivc/downloadset/internal/entity"
)

// Recognized section fields. Anything else fails resolution.
const (
	FieldURL         = "url"
	FieldSHA256      = "sha256"
	FieldGroup       = "group"
	FieldMarker      = "marker"
	FieldExtract     = "extract"
	FieldExtractPath = "extract_path"
)

/*
Parse splits manifest text into its sections, preserving file order.

The grammar knows three line shapes after trimming: `[name]` starts a new
section, `key = value` adds a field to the current one (first `=` splits,
both sides trimmed), blank lines are ignored. The `marker` key may repeat
and accumulates; any other repeated key is an error rather than a silent
overwrite.
*/
func Parse(text string) ([]entity.RawSection, error) {
	var (
		sections []entity.RawSection
		cur      *entity.RawSection
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			name := raw[1 : len(raw)-1]
			if name == "" {
				return nil, fmt.Errorf("line %d: %w: empty section name", line, common.ErrMalformedSection)
			}

			sections = append(sections, entity.RawSection{Name: name, Line: line})
			cur = &sections[len(sections)-1]

			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("line %d: %w: %q before any [section] header",
				line, common.ErrMalformedSection, raw)
		}

		k, v, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("[%s] line %d: %w: expected `key = value`, got %q",
				cur.Name, line, common.ErrMalformedSection, raw)
		}

		key, value := strings.TrimSpace(k), strings.TrimSpace(v)
		if key != FieldMarker {
			for i := range cur.Fields {
				if cur.Fields[i].Key == key {
					return nil, fmt.Errorf("[%s] line %d: %w: %s",
						cur.Name, line, common.ErrDuplicateField, key)
				}
			}
		}

		cur.Fields = append(cur.Fields, entity.Field{Key: key, Value: value, Line: line})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrMalformedSection, err)
	}

	return sections, nil
}
