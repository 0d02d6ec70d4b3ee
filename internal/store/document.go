// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package store reads and edits the YAML variable files that hold plain and
// vault-encrypted values. Edits are line based: only the entry being updated
// is re-rendered, every other byte of the file is kept as it was.
package store

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// keyLine matches a top-level "key:" head. The key must be followed by
// whitespace or end of line so "token" never matches "token_backup:".
var keyLine = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_.-]*):(?:[ \t]|$)`)

// segment is either an entry (key set) or trivia: blank lines, column-0
// comments and document markers that belong to no key.
type segment struct {
	key   string
	lines []string
}

// Document is an ordered list of top-level entries.
type Document struct {
	segs            []segment
	trailingNewline bool
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{trailingNewline: true}
}

// Parse splits data into entries. It rejects duplicate keys, indented
// content with no owning key and anything yaml.v3 refuses.
func Parse(data []byte) (*Document, error) {
	doc := NewDocument()
	if len(data) == 0 {
		return doc, nil
	}
	if err := checkYAML(data); err != nil {
		return nil, err
	}

	text := string(data)
	doc.trailingNewline = strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")

	seen := make(map[string]int)
	var cur *segment
	flush := func() {
		if cur != nil {
			doc.segs = append(doc.segs, *cur)
			cur = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		bare := strings.TrimRight(line, "\r")
		switch {
		case isFiller(bare) && cur != nil && cur.key != "" && continuesEntry(lines, i+1):
			// blank or commented-out line inside a nested value
			cur.lines = append(cur.lines, line)

		case strings.TrimSpace(bare) == "":
			if cur == nil || cur.key != "" {
				flush()
				cur = &segment{}
			}
			cur.lines = append(cur.lines, line)

		case isIndented(bare):
			if cur == nil || cur.key == "" {
				if strings.HasPrefix(strings.TrimSpace(bare), "#") {
					if cur == nil {
						cur = &segment{}
					}
					cur.lines = append(cur.lines, line)
					continue
				}
				return nil, &CorruptError{Line: i + 1, Reason: "indented content outside any key"}
			}
			cur.lines = append(cur.lines, line)

		default:
			m := keyLine.FindStringSubmatch(bare)
			if m == nil {
				// comments, "---" and the like
				if cur == nil || cur.key != "" {
					flush()
					cur = &segment{}
				}
				cur.lines = append(cur.lines, line)
				continue
			}
			key := m[1]
			if first, dup := seen[key]; dup {
				return nil, &CorruptError{Line: i + 1, Reason: fmt.Sprintf("duplicate key %q (first defined on line %d)", key, first)}
			}
			seen[key] = i + 1
			flush()
			cur = &segment{key: key, lines: []string{line}}
		}
	}
	flush()
	return doc, nil
}

// continuesEntry reports whether the next line from i that is neither blank
// nor a column-0 comment is indented, meaning the run sits inside a
// multi-line value.
func continuesEntry(lines []string, i int) bool {
	for ; i < len(lines); i++ {
		l := strings.TrimRight(lines[i], "\r")
		if isFiller(l) {
			continue
		}
		return isIndented(l)
	}
	return false
}

func isFiller(line string) bool {
	return strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#")
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func checkYAML(data []byte) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return &CorruptError{Reason: err.Error()}
	}
	if len(root.Content) == 0 {
		return nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return &CorruptError{Line: top.Line, Reason: "top level is not a mapping"}
	}
	return nil
}

// Keys returns the top-level keys in file order.
func (d *Document) Keys() []string {
	var keys []string
	for _, s := range d.segs {
		if s.key != "" {
			keys = append(keys, s.key)
		}
	}
	return keys
}

func (d *Document) find(key string) int {
	for i, s := range d.segs {
		if s.key == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key without decrypting it. Armored
// payloads come back tag-stripped with indentation removed.
func (d *Document) Get(key string) (Value, error) {
	i := d.find(key)
	if i < 0 {
		return Value{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	var m yaml.Node
	if err := yaml.Unmarshal([]byte(strings.Join(d.segs[i].lines, "\n")), &m); err != nil {
		return Value{}, &CorruptError{Reason: fmt.Sprintf("entry %q: %v", key, err)}
	}
	if len(m.Content) == 0 || len(m.Content[0].Content) < 2 {
		return Value{}, &CorruptError{Reason: fmt.Sprintf("entry %q has no value", key)}
	}
	node := m.Content[0].Content[1]
	if node.Kind != yaml.ScalarNode {
		return Value{}, fmt.Errorf("%w: %s is not a scalar", ErrUnsupportedValue, key)
	}
	if node.Tag == VaultTag {
		return Armored(node.Value), nil
	}
	return Plain(node.Value), nil
}

// Set replaces the entry for key, or appends it when the key is new. Other
// entries keep their position and bytes.
func (d *Document) Set(key string, v Value) error {
	if !keyLine.MatchString(key + ":") {
		return fmt.Errorf("invalid key %q", key)
	}
	lines, err := render(key, v)
	if err != nil {
		return err
	}
	if i := d.find(key); i >= 0 {
		d.segs[i].lines = lines
		return nil
	}
	d.segs = append(d.segs, segment{key: key, lines: lines})
	d.trailingNewline = true
	return nil
}

func render(key string, v Value) ([]string, error) {
	if v.IsArmored() {
		payload := normalizePayload(v.Text)
		if payload == "" {
			return nil, fmt.Errorf("empty armored value for %q", key)
		}
		lines := []string{key + ": " + VaultTag + " |"}
		for _, l := range strings.Split(payload, "\n") {
			lines = append(lines, "  "+l)
		}
		return lines, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	node := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: key},
		// !!str forces quoting of values that would otherwise resolve
		// to numbers, booleans or null.
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text},
	}}
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encode %q: %w", key, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode %q: %w", key, err)
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"), nil
}

// Bytes renders the document.
func (d *Document) Bytes() []byte {
	var lines []string
	for _, s := range d.segs {
		lines = append(lines, s.lines...)
	}
	if len(lines) == 0 {
		return nil
	}
	out := strings.Join(lines, "\n")
	if d.trailingNewline {
		out += "\n"
	}
	return []byte(out)
}
