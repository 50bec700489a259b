package endpoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseJSON walks the document with a token decoder so paths and methods
// come out in document order, which a map[string]interface{} would lose
func parseJSON(data []byte) ([]Descriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{', "document"); err != nil {
		return nil, err
	}

	var descriptors []Descriptor
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "paths" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}
		found, err := jsonPaths(dec)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, found...)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	// Anything after the top-level object is malformed
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level object")
		}
		return nil, err
	}
	return descriptors, nil
}

// jsonPaths decodes the value of "paths": an object of path -> path item
func jsonPaths(dec *json.Decoder) ([]Descriptor, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("paths: expected an object, got %v", tok)
	}

	var descriptors []Descriptor
	for dec.More() {
		path, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, '{', fmt.Sprintf("path item %q", path)); err != nil {
			return nil, err
		}
		for dec.More() {
			method, err := objectKey(dec)
			if err != nil {
				return nil, err
			}
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			descriptors = append(descriptors, Descriptor{Path: path, Method: strings.ToUpper(method)})
		}
		// closing '}' of the path item
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return descriptors, nil
}

func expectDelim(dec *json.Decoder, want json.Delim, what string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%s: expected an object, got %v", what, tok)
	}
	return nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected an object key, got %v", tok)
	}
	return key, nil
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// parseYAML uses the node API rather than a map so keys keep their order
func parseYAML(data []byte) ([]Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}

	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("document: expected a mapping")
	}

	paths := mappingValue(root, "paths")
	if paths == nil || isNull(paths) {
		return nil, nil
	}
	if paths.Kind != yaml.MappingNode {
		return nil, errors.New("paths: expected a mapping")
	}

	var descriptors []Descriptor
	for i := 0; i+1 < len(paths.Content); i += 2 {
		path := paths.Content[i].Value
		item := resolve(paths.Content[i+1])
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("path item %q (line %d): expected a mapping", path, item.Line)
		}
		for j := 0; j+1 < len(item.Content); j += 2 {
			method := item.Content[j].Value
			descriptors = append(descriptors, Descriptor{Path: path, Method: strings.ToUpper(method)})
		}
	}
	return descriptors, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}
