//go:build mage

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// statRoots are the source trees reported separately by Stats.
var statRoots = []string{"pkg", "internal", "cmd"}

// statDocs are the project documents whose word counts Stats reports.
var statDocs = []string{"DESIGN.md", "SPEC_FULL.md", "spec.md"}

// treeStats holds line counts for one source tree.
type treeStats struct {
	Files     int `json:"files"`
	ProdLines int `json:"prod_lines"`
	TestLines int `json:"test_lines"`
}

// Stats prints per-tree Go line counts and document word counts as one JSON
// line.
func Stats() error {
	record := map[string]any{}
	var prod, test int
	for _, root := range statRoots {
		st, err := countTree(root)
		if err != nil {
			return err
		}
		record[root] = st
		prod += st.ProdLines
		test += st.TestLines
	}
	record["go_loc_prod"] = prod
	record["go_loc_test"] = test

	docs := map[string]int{}
	for _, name := range statDocs {
		data, err := os.ReadFile(name)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		docs[name] = len(strings.Fields(string(data)))
	}
	record["doc_words"] = docs

	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

// countTree counts lines of the Go files under root. classfiletest is a test
// fixture builder, so it counts as test code.
func countTree(root string) (treeStats, error) {
	var st treeStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		lines := bytes.Count(data, []byte{'\n'})
		st.Files++
		if strings.HasSuffix(path, "_test.go") || strings.Contains(path, "classfiletest") {
			st.TestLines += lines
		} else {
			st.ProdLines += lines
		}
		return nil
	})
	return st, err
}
