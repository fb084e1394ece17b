package entity

// ArchiveKind names the archive formats a manifest entry may extract from.
type ArchiveKind string

const (
	ArchiveNone ArchiveKind = ""
	ArchiveZip  ArchiveKind = "zip"
	ArchiveTar  ArchiveKind = "tar"
)

// ResolvedAction is a fully validated, group-collapsed download instruction
// ready for execution. Group and marker information is already resolved
// away by the time one of these exists.
type ResolvedAction struct {
	Filename    string      // Destination path relative to the manifest's destination root
	URL         string
	SHA256      string      // Expected digest of the fetched bytes, 64 lowercase hex characters
	Extract     ArchiveKind // ArchiveNone means the fetched bytes are written verbatim
	ExtractPath string      // Member path inside the archive, set iff Extract is set
}

// InstalledFile is one inventory record returned by the executor for the
// packaging step to consume.
type InstalledFile struct {
	Path   string // Destination path as written
	Size   int64  // Size of the installed file in bytes
	SHA256 string // Verified digest of the fetched artifact (the archive itself when extracted)
}

// SkippedGroup reports a mutually exclusive group where no member matched
// the current platform. Not an error by itself; the caller decides.
type SkippedGroup struct {
	Group    string
	Sections []string // Section names of the group members, in file order
}
