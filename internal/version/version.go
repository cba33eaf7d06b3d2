package version

import (
	"fmt"
	"runtime"
)

// Name is the program name reported by the CLI and to remote peers.
const Name = "intentd"

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/intentd/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/intentd/internal/version.Commit=abc123
//	  -X github.com/soyeahso/intentd/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		Name, Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// ClientID identifies this build to brokers and servers, e.g. "intentd/1.2.0".
func ClientID() string {
	return Name + "/" + Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
