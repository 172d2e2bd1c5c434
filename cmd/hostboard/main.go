package main

import (
	"os"

	"github.com/mensylisir/hostboard/cmd/hostboard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
