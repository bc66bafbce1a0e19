package main

import (
	"fmt"
	"os"

	"github.com/sokinpui/liveedit"
)

func main() {
	if err := liveedit.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
