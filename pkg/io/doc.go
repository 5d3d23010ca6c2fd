// Package io provides JSON import and export for resolved dependency trees.
//
// # JSON Format
//
// A tree is a nested object; every node has the same three fields:
//
//	{
//	  "name": "express",
//	  "version": "4.18.2",
//	  "dependencies": [
//	    {"name": "accepts", "version": "1.3.8", "dependencies": [...]},
//	    ...
//	  ]
//	}
//
// "dependencies" is always an array, empty for leaves. The same package may
// appear in several places of the tree; each occurrence is a full copy.
//
// # Import
//
// Use [ImportJSON] to read a tree from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	tree, err := io.ImportJSON("express.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both validate that every node has a name and a version. A null or missing
// "dependencies" field is accepted and normalised to an empty list.
//
// # Export
//
// Use [ExportJSON] to write a tree to a file, or [WriteJSON] to write to any
// io.Writer. Output is indented with two spaces and re-imports identically.
package io
