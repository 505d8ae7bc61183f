package main

import (
	"github.com/strata-data/strata/cmd/strata/cmd"
)

func main() {
	cmd.Execute()
}
