// Package main is the entry point for the nascheck application
package main

import (
	"github.com/storageops/nascheck/cmd"
)

func main() {
	cmd.Execute()
}
