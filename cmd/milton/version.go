package main

import "fmt"

// version is set at build time via -ldflags, mirroring the teacher's
// convention of a bare package-level var left at "dev" otherwise.
var version = "dev"

func versionCommand() {
	fmt.Printf("milton %s\n", version)
}
