package main

import (
	"os"

	"github.com/dshills/reword/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
