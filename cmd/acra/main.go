package main

import (
	"os"

	"github.com/dshills/acra/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
