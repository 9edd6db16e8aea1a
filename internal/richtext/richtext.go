// Package richtext models the minimal rich-text document shape needed to
// extract embedded entity references.
package richtext

import (
	"encoding/json"
	"fmt"

	"github.com/starford/fihrist/internal/model"
)

// MarkEntityReference is the one mark type this package understands.
const MarkEntityReference = "entityReference"

// Mark is an inline annotation attached to a node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node is one node of a rich-text document tree.
type Node struct {
	Type    string  `json:"type"`
	Text    string  `json:"text,omitempty"`
	Marks   []Mark  `json:"marks,omitempty"`
	Content []*Node `json:"content,omitempty"`
}

// Reference is one embedded entity reference found in a document.
type Reference struct {
	Target      model.Ref `json:"target"`
	DisplayText string    `json:"display_text"`
}

// ParseDoc decodes a rich-text document from its JSON form.
func ParseDoc(data []byte) (*Node, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("richtext: parse doc: %w", err)
	}
	return &root, nil
}

// ExtractReferences walks the document depth-first and returns every
// entityReference mark, de-duplicated by target kind:id in first-occurrence
// order. The input is not mutated; calling twice yields identical results.
func ExtractReferences(root *Node) []Reference {
	if root == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []Reference
	collect(root, seen, &out)
	return out
}

func collect(n *Node, seen map[string]struct{}, out *[]Reference) {
	for _, m := range n.Marks {
		if m.Type != MarkEntityReference {
			continue
		}
		ref, ok := refFromAttrs(m.Attrs, n.Text)
		if !ok {
			continue
		}
		key := ref.Target.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		*out = append(*out, ref)
	}
	for _, child := range n.Content {
		collect(child, seen, out)
	}
}

// refFromAttrs reads the three entityReference attributes. Marks with a
// missing or unknown target kind are skipped rather than erroring.
func refFromAttrs(attrs map[string]any, nodeText string) (Reference, bool) {
	kind, _ := attrs["targetType"].(string)
	id, _ := attrs["targetId"].(string)
	if kind == "" || id == "" || !model.Kind(kind).Valid() {
		return Reference{}, false
	}
	display, _ := attrs["displayText"].(string)
	if display == "" {
		display = nodeText
	}
	return Reference{
		Target:      model.Ref{Kind: model.Kind(kind), ID: id},
		DisplayText: display,
	}, true
}
