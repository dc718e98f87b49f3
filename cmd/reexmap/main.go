package main

import (
	"os"

	"reexmap/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
