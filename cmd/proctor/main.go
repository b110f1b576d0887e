// Command proctor runs an exam proctoring session or its log viewer.
package main

import (
	"fmt"
	"os"

	"github.com/teslashibe/go-proctor/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
