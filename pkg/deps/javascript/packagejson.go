package javascript

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/deptree/pkg/deps"
	"github.com/matzehuels/deptree/pkg/integrations/npm"
)

// Manifest is the part of a package.json the resolver needs.
type Manifest struct {
	Name         string
	Version      string
	Dependencies []deps.Dependency
}

type packageFile struct {
	Name            string             `json:"name"`
	Version         string             `json:"version"`
	Dependencies    npm.DependencyList `json:"dependencies"`
	DevDependencies npm.DependencyList `json:"devDependencies"`
}

// ReadPackageJSON parses the package.json at path. Runtime dependencies come
// first in file order, followed by devDependencies when includeDev is set.
// A name listed in both keeps its runtime range.
func ReadPackageJSON(path string, includeDev bool) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePackageJSON(data, includeDev)
}

// ParsePackageJSON is [ReadPackageJSON] for in-memory content.
func ParsePackageJSON(data []byte, includeDev bool) (*Manifest, error) {
	var pkg packageFile
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}

	m := &Manifest{Name: pkg.Name, Version: pkg.Version}
	if m.Name == "" {
		m.Name = "__project__"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}

	seen := make(map[string]bool)
	add := func(list npm.DependencyList) {
		for _, d := range list {
			if seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			m.Dependencies = append(m.Dependencies, deps.Dependency{Name: d.Name, Range: d.Range})
		}
	}
	add(pkg.Dependencies)
	if includeDev {
		add(pkg.DevDependencies)
	}
	return m, nil
}
