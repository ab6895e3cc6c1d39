package main

import (
	"os"

	"gopkg.in/yaml.v2"
	"pokertable-server/internal/config"
)

// prints the default configuration, suitable as a starting config.yaml
func main() {
	if err := yaml.NewEncoder(os.Stdout).Encode(config.DefaultConfig()); err != nil {
		panic(err)
	}
}
