package manifest

import (
	"fmt"

	"github.com/jgivc/downloadset/internal/common"
	"github.com/jgivc/downloadset/internal/entity"
	"github.com/jgivc/downloadset/internal/service/marker"
)

// DownloadEntry is the semantically validated view of a RawSection.
// Transient: built fresh per Resolve call and discarded once the action
// list exists.
type DownloadEntry struct {
	Filename    string
	URL         string
	SHA256      string
	Group       string          // Empty for ungrouped entries
	Markers     []marker.Marker // Non-empty iff Group is set; disjunction semantics
	Extract     entity.ArchiveKind
	ExtractPath string
}

// Result is the outcome of resolving one manifest against one platform.
type Result struct {
	Actions []entity.ResolvedAction
	Skipped []entity.SkippedGroup // Groups where no member matched the facts
}

/*
Resolve validates every section, evaluates group markers against the
facts and emits the flat action list.

Ungrouped entries are always selected. Within a group the first member
(in file order) whose markers match wins; authors write members in
priority order, so no most-specific heuristics are applied. A group with
no matching member contributes nothing and is reported in Skipped.
Output order follows the file order of each entry's (or its group's
first) section, so repeated calls with the same input produce an
identical list.
*/
func Resolve(sections []entity.RawSection, facts entity.PlatformFacts) (*Result, error) {
	entries := make([]DownloadEntry, 0, len(sections))
	for i := range sections {
		e, err := validate(&sections[i])
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	groups := make(map[string][]int)
	for i := range entries {
		if g := entries[i].Group; g != "" {
			groups[g] = append(groups[g], i)
		}
	}

	res := &Result{}
	selected := make(map[string]bool) // destination paths already claimed
	decided := make(map[string]bool)  // groups already evaluated

	emit := func(idx int) error {
		e := &entries[idx]
		if selected[e.Filename] {
			return fmt.Errorf("%w: %s selected more than once", common.ErrDuplicateTarget, e.Filename)
		}
		selected[e.Filename] = true

		res.Actions = append(res.Actions, entity.ResolvedAction{
			Filename:    e.Filename,
			URL:         e.URL,
			SHA256:      e.SHA256,
			Extract:     e.Extract,
			ExtractPath: e.ExtractPath,
		})

		return nil
	}

	for i := range entries {
		e := &entries[i]

		if e.Group == "" {
			if err := emit(i); err != nil {
				return nil, err
			}

			continue
		}

		if decided[e.Group] {
			continue
		}
		decided[e.Group] = true

		members := groups[e.Group]
		match := -1
		for _, idx := range members {
			if anyMatch(entries[idx].Markers, facts) {
				match = idx
				break
			}
		}

		if match < 0 {
			sk := entity.SkippedGroup{Group: e.Group}
			for _, idx := range members {
				sk.Sections = append(sk.Sections, entries[idx].Filename)
			}
			res.Skipped = append(res.Skipped, sk)

			continue
		}

		if err := emit(match); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// anyMatch reports whether at least one of the entry's markers evaluates
// true. Repeated marker lines are alternatives, not conjuncts.
func anyMatch(markers []marker.Marker, facts entity.PlatformFacts) bool {
	for _, m := range markers {
		if m.Evaluate(facts) {
			return true
		}
	}

	return false
}

func validate(s *entity.RawSection) (DownloadEntry, error) {
	e := DownloadEntry{Filename: s.Name}

	var hasExtract, hasExtractPath bool
	for _, f := range s.Fields {
		switch f.Key {
		case FieldURL:
			e.URL = f.Value
		case FieldSHA256:
			e.SHA256 = f.Value
		case FieldGroup:
			e.Group = f.Value
		case FieldMarker:
			m, err := marker.Parse(f.Value)
			if err != nil {
				return DownloadEntry{}, fmt.Errorf("[%s] line %d: %w", s.Name, f.Line, err)
			}
			e.Markers = append(e.Markers, m)
		case FieldExtract:
			e.Extract = entity.ArchiveKind(f.Value)
			hasExtract = true
		case FieldExtractPath:
			e.ExtractPath = f.Value
			hasExtractPath = true
		default:
			return DownloadEntry{}, fmt.Errorf("[%s] line %d: %w: %s",
				s.Name, f.Line, common.ErrUnknownField, f.Key)
		}
	}

	if e.URL == "" {
		return DownloadEntry{}, fmt.Errorf("[%s]: %w: url", s.Name, common.ErrMissingField)
	}

	if e.SHA256 == "" {
		return DownloadEntry{}, fmt.Errorf("[%s]: %w: sha256", s.Name, common.ErrMissingField)
	}

	if !validChecksum(e.SHA256) {
		return DownloadEntry{}, fmt.Errorf("[%s] sha256: %w: want 64 lowercase hex characters, got %q",
			s.Name, common.ErrChecksumFormat, e.SHA256)
	}

	if hasExtract != hasExtractPath {
		return DownloadEntry{}, fmt.Errorf("[%s]: %w: extract and extract_path must be set together",
			s.Name, common.ErrFieldCombination)
	}

	if hasExtract && e.Extract != entity.ArchiveZip && e.Extract != entity.ArchiveTar {
		return DownloadEntry{}, fmt.Errorf("[%s] extract: %w: %q (want zip or tar)",
			s.Name, common.ErrExtractKind, e.Extract)
	}

	if (e.Group != "") != (len(e.Markers) > 0) {
		return DownloadEntry{}, fmt.Errorf("[%s]: %w: group and marker must be set together",
			s.Name, common.ErrFieldCombination)
	}

	return e, nil
}

func validChecksum(s string) bool {
	if len(s) != 64 {
		return false
	}

	for _, ch := range s {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return false
		}
	}

	return true
}
