// Package main is the entry point for the settingsync CLI.
package main

import "settingsync.dev/pkg/settingsync/cmd"

func main() {
	cmd.Execute()
}
