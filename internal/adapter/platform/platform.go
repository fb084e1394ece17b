// Package platform supplies the fact tuple a manifest is resolved
// against. The values follow the conventions manifest authors know from
// scripting environments: os_name is the OS family, sys_platform the
// kernel name, platform_machine the uname-style machine spelling.
package platform

import (
	"runtime"

	"github.com/jgivc/downloadset/internal/entity"
)

// Facts reports the current process platform. Constant for the process
// lifetime; resolvers and tests always take facts as a parameter instead
// of calling this directly.
func Facts() entity.PlatformFacts {
	return factsFor(runtime.GOOS, runtime.GOARCH)
}

func factsFor(goos, goarch string) entity.PlatformFacts {
	f := entity.PlatformFacts{
		OSName:          "posix",
		SysPlatform:     goos,
		PlatformMachine: goarch,
	}

	if goos == "windows" {
		f.OSName = "nt"
		f.SysPlatform = "win32"

		// Windows reports machine names in upper case
		switch goarch {
		case "amd64":
			f.PlatformMachine = "AMD64"
		case "arm64":
			f.PlatformMachine = "ARM64"
		case "386":
			f.PlatformMachine = "x86"
		}

		return f
	}

	switch goarch {
	case "amd64":
		f.PlatformMachine = "x86_64"
	case "386":
		f.PlatformMachine = "i686"
	case "arm64":
		// Linux and the BSDs call it aarch64, macOS keeps arm64
		if goos != "darwin" {
			f.PlatformMachine = "aarch64"
		}
	}

	return f
}
