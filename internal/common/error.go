package common

import "fmt"

// One sentinel per failure class. Callers wrap these with section, field
// and line context; a broken manifest aborts the whole run, there is no
// warn-and-continue mode.
var (
	ErrMalformedSection = fmt.Errorf("malformed section")
	ErrDuplicateField   = fmt.Errorf("duplicate field")
	ErrUnknownField     = fmt.Errorf("unknown field")
	ErrMissingField     = fmt.Errorf("missing field")
	ErrFieldCombination = fmt.Errorf("invalid field combination")
	ErrMarkerSyntax     = fmt.Errorf("invalid marker")
	ErrChecksumFormat   = fmt.Errorf("invalid sha256 value")
	ErrExtractKind      = fmt.Errorf("invalid extract kind")
	ErrDuplicateTarget  = fmt.Errorf("duplicate destination")
	ErrGroupUnsupported = fmt.Errorf("no variant for this platform")

	ErrFetch            = fmt.Errorf("fetch failed")
	ErrChecksumMismatch = fmt.Errorf("checksum mismatch")
	ErrMemberNotFound   = fmt.Errorf("archive member not found")
)
