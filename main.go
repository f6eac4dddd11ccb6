// Package main provides the entry point for wcetcore, a static
// worst-case execution time analyzer core.
//
// For the full CLI, use: go run ./cmd/wcetcore
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("wcetcore - static WCET analyzer core")
	fmt.Println("")
	fmt.Println("Usage: wcetcore [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -scenario  Built-in fixture scenario to analyze (s1, s2, s3, s4, s5, s6)")
	fmt.Println("  -platform  Path to a platform-description JSON file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/wcetcore' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/wcetcore' instead.")
	}
}
