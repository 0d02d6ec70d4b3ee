// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks translation keys. It scans the Go sources for i18n.T
// calls and compares them against the YAML locale files: keys used in code
// but absent from the primary locale, and keys missing from secondary
// locales, fail the run. Orphaned keys are reported as warnings.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location stores the file and line number of a found key.
type Location struct {
	Filepath string
	Line     int
}

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "active.en.yaml"
	projectRoot   = "."
)

// translateCall matches i18n.T("key", ...).
var translateCall = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

// report is the outcome of one lint run.
type report struct {
	Undefined map[string][]Location
	Orphaned  []string
	// Missing maps a secondary locale file to the primary keys it lacks.
	Missing map[string][]string
}

func (r report) failed() bool {
	return len(r.Undefined) > 0 || len(r.Missing) > 0
}

func main() {
	r, err := lint(projectRoot, localesDir)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	printReport(os.Stdout, r)
	if r.failed() {
		os.Exit(1)
	}
}

func lint(root, locales string) (report, error) {
	r := report{Missing: make(map[string][]string)}

	used, err := findUsedKeys(root)
	if err != nil {
		return r, fmt.Errorf("error finding used keys: %w", err)
	}
	primary, err := loadKeysFromLocale(filepath.Join(locales, primaryLocale))
	if err != nil {
		return r, fmt.Errorf("error loading primary locale %s: %w", primaryLocale, err)
	}

	r.Undefined = make(map[string][]Location)
	for key, locs := range used {
		if _, ok := primary[key]; !ok {
			r.Undefined[key] = locs
		}
	}
	for key := range primary {
		if _, ok := used[key]; !ok {
			r.Orphaned = append(r.Orphaned, key)
		}
	}
	sort.Strings(r.Orphaned)

	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return r, fmt.Errorf("error finding locale files: %w", err)
	}
	for _, file := range files {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		secondary, err := loadKeysFromLocale(file)
		if err != nil {
			return r, fmt.Errorf("error loading %s: %w", file, err)
		}
		for key := range primary {
			if _, ok := secondary[key]; !ok {
				r.Missing[file] = append(r.Missing[file], key)
			}
		}
		sort.Strings(r.Missing[file])
	}
	return r, nil
}

func printReport(w io.Writer, r report) {
	fmt.Fprintln(w, "--- Keys used in code but not defined ---")
	if len(r.Undefined) == 0 {
		fmt.Fprintln(w, "  ✨ None found.")
	}
	undefined := make([]string, 0, len(r.Undefined))
	for key := range r.Undefined {
		undefined = append(undefined, key)
	}
	sort.Strings(undefined)
	for _, key := range undefined {
		loc := r.Undefined[key][0]
		fmt.Fprintf(w, "  - Undefined: %s (%s:%d)\n", key, loc.Filepath, loc.Line)
	}

	fmt.Fprintln(w, "\n--- Orphaned keys ---")
	if len(r.Orphaned) == 0 {
		fmt.Fprintln(w, "  ✨ None found.")
	}
	for _, key := range r.Orphaned {
		fmt.Fprintf(w, "  - Orphaned: %s\n", key)
	}

	if len(r.Missing) > 0 {
		fmt.Fprintln(w, "\n--- Keys missing from secondary locales ---")
		files := make([]string, 0, len(r.Missing))
		for f := range r.Missing {
			files = append(files, f)
		}
		sort.Strings(files)
		for _, f := range files {
			for _, key := range r.Missing[f] {
				fmt.Fprintf(w, "  - %s: %s\n", f, key)
			}
		}
	}

	fmt.Fprintln(w)
	switch {
	case r.failed():
		fmt.Fprintln(w, "❌ Found issues that need to be addressed.")
	case len(r.Orphaned) > 0:
		fmt.Fprintln(w, "⚠️  Found orphaned keys. Please consider removing them.")
	default:
		fmt.Fprintln(w, "✅ All translation files are consistent!")
	}
}

// findUsedKeys scans non-test .go files for i18n.T calls. The tools
// directory and directories starting with "_" or "." are skipped.
func findUsedKeys(root string) (map[string][]Location, error) {
	keys := make(map[string][]Location)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "tools" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for i, line := range strings.Split(string(content), "\n") {
			for _, m := range translateCall.FindAllStringSubmatch(line, -1) {
				keys[m[1]] = append(keys[m[1]], Location{Filepath: path, Line: i + 1})
			}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML file and returns a flat map of its keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}

	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML converts a nested map into a flat map with dot-separated keys.
func flattenYAML(prefix string, node any, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		for k, val := range v {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flattenYAML(next, val, keys)
		}
	case []any:
		for i, val := range v {
			flattenYAML(fmt.Sprintf("%s[%d]", prefix, i), val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
