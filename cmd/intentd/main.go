package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/intentd/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	// Restart when the binary is rebuilt, for `make dev` style loops.
	if os.Getenv("INTENTD_AUTORESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "intentd:", err)
		os.Exit(1)
	}
}
