package main

import (
	"flag"
	"log"
	"os"

	"github.com/NVIDIA/asset-bundle-cache/pkg/api"
)

func main() {
	configPath := flag.String("config", os.Getenv("BUNDLED_CONFIG"), "path or URL of the configuration file")
	flag.Parse()

	if err := api.Serve(*configPath); err != nil {
		log.Fatal(err)
	}
}
