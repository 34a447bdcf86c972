package main

import (
	"github.com/s0up4200/qbitapi/internal/cli"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, buildTime)
	cli.Execute()
}
