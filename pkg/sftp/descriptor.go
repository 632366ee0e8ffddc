package sftp

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garrison-sh/garrison/pkg/atomicfile"
)

// Descriptor is the compose document declaring the SFTP gateway's runtime
// shape. The document is held as a yaml.Node tree rather than a typed
// struct so that keys unrelated to volume management (restart policy,
// networks, operator additions) round-trip untouched, in their original
// order.
type Descriptor struct {
	root yaml.Node
}

// descriptorStore loads and persists the service descriptor file
type descriptorStore struct {
	path        string
	serviceName string
}

// Load parses the descriptor from disk. A missing or empty file yields a
// descriptor with an empty document; substructures down to the volumes
// list are created on first use, not treated as errors.
func (s *descriptorStore) Load() (*Descriptor, error) {
	d := &Descriptor{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			d.root = emptyDocument()
			return d, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreRead, s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		d.root = emptyDocument()
		return d, nil
	}

	if err := yaml.Unmarshal(data, &d.root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreRead, s.path, err)
	}
	return d, nil
}

// Persist serializes the descriptor and writes it through the atomic
// writer, so a reloading gateway never sees a partial document
func (s *descriptorStore) Persist(d *Descriptor) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&d.root); err != nil {
		return fmt.Errorf("failed to serialize descriptor: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to serialize descriptor: %w", err)
	}

	if err := atomicfile.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to persist descriptor: %w", err)
	}
	return nil
}

// AddVolume appends the volume mapping for subscriptionID unless one
// mentioning the subscription already exists. Returns true if the
// document changed.
func (s *descriptorStore) AddVolume(d *Descriptor, subscriptionID, gameType string) bool {
	volumes := d.volumes(s.serviceName)

	for _, entry := range volumes.Content {
		if strings.Contains(entry.Value, subscriptionID) {
			return false
		}
	}

	entry := fmt.Sprintf("%s/%s:/home/%s/%s:rw",
		ServersBasePath, subscriptionID, subscriptionID, gameType)
	volumes.Content = append(volumes.Content, &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: entry,
	})
	return true
}

// RemoveVolume filters out every volume mapping mentioning the
// subscription. Returns the number of entries removed.
func (s *descriptorStore) RemoveVolume(d *Descriptor, subscriptionID string) int {
	volumes := d.volumes(s.serviceName)

	kept := volumes.Content[:0]
	removed := 0
	for _, entry := range volumes.Content {
		if strings.Contains(entry.Value, subscriptionID) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	volumes.Content = kept
	return removed
}

// Volumes returns the rendered volume mapping strings in document order
func (s *descriptorStore) Volumes(d *Descriptor) []string {
	volumes := d.volumes(s.serviceName)
	out := make([]string, 0, len(volumes.Content))
	for _, entry := range volumes.Content {
		out = append(out, entry.Value)
	}
	return out
}

// volumes walks to services.<name>.volumes, creating each level (and
// coercing a non-sequence volumes value) on demand
func (d *Descriptor) volumes(serviceName string) *yaml.Node {
	mapping := d.mapping()
	services := ensureMapping(mapping, "services")
	service := ensureMapping(services, serviceName)
	return ensureSequence(service, "volumes")
}

// mapping returns the document's top-level mapping node
func (d *Descriptor) mapping() *yaml.Node {
	if d.root.Kind == 0 {
		d.root = emptyDocument()
	}
	top := d.root.Content[0]
	if top.Kind != yaml.MappingNode {
		*top = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	return top
}

func emptyDocument() yaml.Node {
	return yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{
			{Kind: yaml.MappingNode, Tag: "!!map"},
		},
	}
}

// mappingValue finds the value node for key in a mapping, or nil
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// ensureMapping returns the mapping node at key, creating or coercing it
func ensureMapping(m *yaml.Node, key string) *yaml.Node {
	if v := mappingValue(m, key); v != nil {
		if v.Kind != yaml.MappingNode {
			*v = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		return v
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Content = append(m.Content, k, v)
	return v
}

// ensureSequence returns the sequence node at key, creating or coercing it
func ensureSequence(m *yaml.Node, key string) *yaml.Node {
	if v := mappingValue(m, key); v != nil {
		if v.Kind != yaml.SequenceNode {
			*v = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		}
		return v
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	m.Content = append(m.Content, k, v)
	return v
}
