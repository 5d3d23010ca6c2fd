package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/deptree/pkg/deps"
)

// WriteJSON encodes tree as indented JSON and writes it to w.
func WriteJSON(tree *deps.Node, w io.Writer) error {
	if tree == nil {
		return fmt.Errorf("write tree: nil tree")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	// Clone allocates empty slices, so leaves encode as [] rather than null.
	return enc.Encode(tree.Clone())
}

// ExportJSON writes tree to the file at path, creating or truncating it.
func ExportJSON(tree *deps.Node, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteJSON(tree, f)
}
