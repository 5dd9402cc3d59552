// Command blogctl is the operator CLI for the blog content service.
package main

import (
	"os"

	"lsablog/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
