// Package library persists finished renders in a YAML document keyed by
// the brief that produced them.
package library

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// DefaultPath is used when no library path is configured.
const DefaultPath = "prompt_library.yml"

// StoreError is returned when the library cannot be read or written.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("library %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store is an append-only YAML library. It is not safe for concurrent
// writers, in or across processes.
type Store struct {
	path string
}

// New creates a Store backed by path.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the library file path.
func (s *Store) Path() string {
	return s.path
}

// AppendRecords appends records under brief, creating the entry if needed.
// Existing entries are never modified. It returns the library path.
func (s *Store) AppendRecords(brief string, records []models.LibraryRecord) (string, error) {
	doc, err := s.readDocument()
	if err != nil {
		return "", err
	}
	root := doc.Content[0]

	list := findValue(root, brief)
	if list == nil {
		list = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: brief},
			list,
		)
	} else if isNull(list) {
		*list = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	} else if list.Kind != yaml.SequenceNode {
		return "", &StoreError{Op: "append", Path: s.path, Err: fmt.Errorf("entry for %q is not a list", brief)}
	}
	list.Style = 0

	for _, rec := range records {
		var n yaml.Node
		if err := n.Encode(rec); err != nil {
			return "", &StoreError{Op: "encode", Path: s.path, Err: err}
		}
		list.Content = append(list.Content, &n)
	}

	if err := s.writeDocument(doc); err != nil {
		return "", err
	}
	return s.path, nil
}

// Load returns every record in the library grouped by brief.
func (s *Store) Load() (map[string][]models.LibraryRecord, error) {
	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.LibraryRecord)
	if err := doc.Content[0].Decode(&out); err != nil {
		return nil, &StoreError{Op: "decode", Path: s.path, Err: err}
	}
	return out, nil
}

// Briefs returns the briefs in document order.
func (s *Store) Briefs() ([]string, error) {
	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}
	root := doc.Content[0]
	briefs := make([]string, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		briefs = append(briefs, root.Content[i].Value)
	}
	return briefs, nil
}

// readDocument loads the library as a document node whose single child is
// a mapping. A missing or blank file yields an empty mapping.
func (s *Store) readDocument() (*yaml.Node, error) {
	empty := &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "read", Path: s.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return empty, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &StoreError{Op: "parse", Path: s.path, Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return empty, nil
	}
	root := doc.Content[0]
	if isNull(root) {
		return empty, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &StoreError{Op: "parse", Path: s.path, Err: errors.New("top level is not a mapping")}
	}
	return &doc, nil
}

// writeDocument replaces the library file with doc via a temp file and
// rename in the same directory.
func (s *Store) writeDocument(doc *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return &StoreError{Op: "encode", Path: s.path, Err: err}
	}
	if err := enc.Close(); err != nil {
		return &StoreError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &StoreError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func findValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
