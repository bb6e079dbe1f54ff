package main

import (
	"os"

	"github.com/schulle4u/multideck-packager/src/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
