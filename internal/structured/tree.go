// Package structured decodes the key-value wire encoding. The stream carries
// its own schema as a sequence of tree-node insertions; log events reference
// schema nodes by id and the deserializer resolves, once per stream, the
// nodes that carry the authoritative log level and timestamp.
package structured

import (
	"fmt"
	"strings"

	"github.com/loglens/irview/internal/ir"
)

// NodeType tags the kind of value a schema-tree node can hold.
type NodeType byte

const (
	NodeObject NodeType = 0x00
	NodeInt    NodeType = 0x01
	NodeFloat  NodeType = 0x02
	NodeBool   NodeType = 0x03
	NodeString NodeType = 0x04
)

// RootNodeID is the id of the implicit root node every stream starts with.
const RootNodeID uint32 = 0

// Node is one schema-tree entry. Parent is a back-reference by id; the tree
// is only ever walked child to ancestor.
type Node struct {
	ID       uint32
	ParentID uint32
	Key      string
	Type     NodeType
}

// SchemaTree is an append-only arena of nodes indexed by monotonic id. Ids
// are never reused and nodes are never removed.
type SchemaTree struct {
	nodes []Node
}

func NewSchemaTree() *SchemaTree {
	return &SchemaTree{nodes: []Node{{ID: RootNodeID, Type: NodeObject}}}
}

// Insert appends a node under the given parent and returns its assigned id.
func (t *SchemaTree) Insert(parentID uint32, key string, typ NodeType) (uint32, error) {
	if int(parentID) >= len(t.nodes) {
		return 0, fmt.Errorf("%w: schema node references unknown parent %d", ir.ErrDecoding, parentID)
	}
	if typ > NodeString {
		return 0, fmt.Errorf("%w: unknown schema node type 0x%02x", ir.ErrDecoding, byte(typ))
	}
	id := uint32(len(t.nodes))
	t.nodes = append(t.nodes, Node{ID: id, ParentID: parentID, Key: key, Type: typ})
	return id, nil
}

// Node returns the node with the given id.
func (t *SchemaTree) Node(id uint32) (Node, bool) {
	if int(id) >= len(t.nodes) {
		return Node{}, false
	}
	return t.nodes[id], true
}

// Len returns the number of nodes, including the root.
func (t *SchemaTree) Len() int {
	return len(t.nodes)
}

// Path returns the dotted key path from the root to the given node.
func (t *SchemaTree) Path(id uint32) (string, bool) {
	if int(id) >= len(t.nodes) || id == RootNodeID {
		return "", false
	}
	var parts []string
	for id != RootNodeID {
		n := t.nodes[id]
		parts = append(parts, n.Key)
		id = n.ParentID
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "."), true
}
