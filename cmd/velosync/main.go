package main

import (
	"os"

	"github.com/velosync/velosync-cli/internal/adapters/driving/cli"
)

func main() {
	os.Exit(cli.Execute())
}
