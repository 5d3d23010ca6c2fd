package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/deptree/pkg/deps"
)

// ReadJSON decodes a tree from r and validates it.
func ReadJSON(r io.Reader) (*deps.Node, error) {
	var tree deps.Node
	if err := json.NewDecoder(r).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if err := validate(&tree, "$"); err != nil {
		return nil, err
	}
	return tree.Clone(), nil
}

// ImportJSON reads a tree from the file at path.
func ImportJSON(path string) (*deps.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

func validate(n *deps.Node, at string) error {
	if n == nil {
		return fmt.Errorf("invalid tree: null node at %s", at)
	}
	if n.Name == "" {
		return fmt.Errorf("invalid tree: missing name at %s", at)
	}
	if n.Version == "" {
		return fmt.Errorf("invalid tree: missing version for %s at %s", n.Name, at)
	}
	for i, d := range n.Dependencies {
		if err := validate(d, fmt.Sprintf("%s.dependencies[%d]", at, i)); err != nil {
			return err
		}
	}
	return nil
}
