package main

import (
	"fmt"
	"os"

	"github.com/foxxorcat/wazero-feed/feed"

	"gopkg.in/yaml.v3"
)

type roster struct {
	People []feed.Profile `yaml:"people"`
}

// loadRoster 读取 YAML 名单。JSON 是 YAML 的子集，同样可以直接读取。
func loadRoster(path string) ([]feed.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var r roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	if len(r.People) == 0 {
		return nil, fmt.Errorf("roster %s lists no people", path)
	}
	return r.People, nil
}
