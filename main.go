package main

import (
	"os"

	"github.com/watarui/wauth/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
