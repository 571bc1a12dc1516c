package main

import (
	"os"

	"github.com/onflow/vault-deployer/cmd/vault-deploy/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
