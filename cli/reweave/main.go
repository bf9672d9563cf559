package main

import (
	"os"

	reweavecmder "github.com/reweaveco/reweave/cmd/reweave"
)

func main() {
	cmd := reweavecmder.NewReweaveCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
