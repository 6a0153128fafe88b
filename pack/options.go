package pack

import "github.com/AsgardXIV/calyx-go/errs"

// Platform selects the on-disk dat/index file-name suffix. Only Win32 is
// implemented; the others are named so that requesting one fails cleanly
// rather than silently falling back to Win32's file layout.
type Platform int

const (
	PlatformWin32 Platform = iota
	PlatformPS3
	PlatformPS4
	PlatformPS5
)

func (p Platform) suffix() (string, error) {
	switch p {
	case PlatformWin32:
		return "win32", nil
	default:
		return "", errs.New(errs.UnsupportedPlatform, "pack.Platform", "only win32 is supported")
	}
}

// Options configures a Pack.
type Options struct {
	// Root is the filesystem root containing sqpack/. Resolving an
	// environment-provided game install path when Root is empty is a
	// caller concern; Pack requires Root to be set explicitly.
	Root string
	// Platform must be PlatformWin32; any other value fails at New.
	Platform Platform
}
