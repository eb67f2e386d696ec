// Package main provides the Fern CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("Fern %s\n", version)
		return
	}

	fmt.Println("Fern - a hand-written convolutional neural network library for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("See examples/tiny-train for a runnable training loop.")
}
