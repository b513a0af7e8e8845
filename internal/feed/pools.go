package feed

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed pools.yaml
var poolsYAML []byte

// contentPools holds the fixed sender and body pools synthetic
// broadcasts draw from.
type contentPools struct {
	Senders []string `yaml:"senders"`
	Bodies  []string `yaml:"bodies"`
}

func loadPools() (*contentPools, error) {
	var p contentPools
	if err := yaml.Unmarshal(poolsYAML, &p); err != nil {
		return nil, fmt.Errorf("parse content pools: %w", err)
	}
	if len(p.Senders) == 0 || len(p.Bodies) == 0 {
		return nil, errors.New("content pools must not be empty")
	}
	return &p, nil
}
