package main

import (
	"github.com/NVIDIA/asset-bundle-cache/pkg/cli"
)

func main() {
	cli.Execute()
}
