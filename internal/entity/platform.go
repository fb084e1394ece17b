package entity

// Marker attribute names. These three are the whole vocabulary of the
// marker expression language.
const (
	AttrOSName          = "os_name"
	AttrSysPlatform     = "sys_platform"
	AttrPlatformMachine = "platform_machine"
)

// PlatformFacts is the environment a manifest is resolved against. It is
// always passed explicitly so tests can resolve against arbitrary tuples.
type PlatformFacts struct {
	OSName          string // "posix" or "nt"
	SysPlatform     string // "linux", "darwin", "win32", ...
	PlatformMachine string // "x86_64", "aarch64", "arm64", ...
}

// Lookup returns the fact value for a marker attribute name.
func (f PlatformFacts) Lookup(attr string) (string, bool) {
	switch attr {
	case AttrOSName:
		return f.OSName, true
	case AttrSysPlatform:
		return f.SysPlatform, true
	case AttrPlatformMachine:
		return f.PlatformMachine, true
	}

	return "", false
}
