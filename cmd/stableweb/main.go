// Package main provides the entry point for the stableweb node.
package main

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	Execute()
}
