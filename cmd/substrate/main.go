package main

import (
	"os"

	"github.com/Swind/go-substrate/cmd/substrate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
