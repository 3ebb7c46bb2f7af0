package main

import (
	"os"

	"github.com/brunovale/bolsa/cmd/bolsactl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
