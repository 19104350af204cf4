// Package workflow parses node-graph documents into the model dependencies
// they declare. Both graph encodings are accepted: the UI export (a nodes
// array with positional widget values) and the API/prompt format (a map of
// node id to class_type plus named inputs).
package workflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"modelscan/pkg/types"
)

// graphError means the whole document was unreadable. It aborts that one
// workflow's rescan and nothing else.
type graphError struct {
	reason string
}

func (e graphError) Error() string { return "unreadable workflow graph: " + e.reason }

// ErrGraph builds a graph-level failure with the given reason.
func ErrGraph(reason string) error { return graphError{reason: reason} }

// IsGraphError reports whether err means the graph document itself could
// not be decoded.
func IsGraphError(err error) bool {
	_, ok := err.(graphError)
	return ok
}

// Extraction is the outcome of one graph pass: every dependency that could
// be extracted plus a warning per node/slot that could not.
type Extraction struct {
	Dependencies []types.DependencyReference
	Warnings     []string
}

// uiGraph is the UI export shape.
type uiGraph struct {
	Nodes []uiNode `json:"nodes"`
}

type uiNode struct {
	ID            json.Number       `json:"id"`
	Type          string            `json:"type"`
	WidgetsValues []json.RawMessage `json:"widgets_values"`
}

// apiNode is one entry of the API/prompt format.
type apiNode struct {
	ClassType string                     `json:"class_type"`
	Inputs    map[string]json.RawMessage `json:"inputs"`
}

// Extract pulls dependency drafts out of a graph document. Unrecognized
// node types are skipped silently; a recognized node with a malformed or
// missing parameter value loses that one dependency and contributes a
// warning, never an error. Only an undecodable document fails.
func Extract(doc []byte) (Extraction, error) {
	if ui, ok := decodeUI(doc); ok {
		return extractUI(ui), nil
	}
	if api, ok := decodeAPI(doc); ok {
		return extractAPI(api), nil
	}
	return Extraction{}, graphError{reason: "document is neither a UI export nor an API-format graph"}
}

func decodeUI(doc []byte) (uiGraph, bool) {
	var g uiGraph
	if err := json.Unmarshal(doc, &g); err != nil || g.Nodes == nil {
		return uiGraph{}, false
	}
	return g, true
}

func decodeAPI(doc []byte) (map[string]apiNode, bool) {
	var m map[string]apiNode
	if err := json.Unmarshal(doc, &m); err != nil || len(m) == 0 {
		return nil, false
	}
	// At least one entry must look like a node, otherwise any JSON object
	// would pass.
	for _, n := range m {
		if n.ClassType != "" {
			return m, true
		}
	}
	return nil, false
}

func extractUI(g uiGraph) Extraction {
	var out Extraction
	for _, node := range g.Nodes {
		slots, ok := loaderNodes[node.Type]
		if !ok {
			continue
		}
		for _, s := range slots {
			name, ok := stringAt(node.WidgetsValues, s.WidgetIndex)
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("node %s (%s): no usable value in widget slot %d", node.ID.String(), node.Type, s.WidgetIndex))
				continue
			}
			out.Dependencies = append(out.Dependencies, draft(node.ID.String(), node.Type, s.ModelType, name))
		}
	}
	return out
}

func extractAPI(nodes map[string]apiNode) Extraction {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	// Map order is random; sort numerically where possible so repeated
	// extraction of the same document yields the same draft order.
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})

	var out Extraction
	for _, id := range ids {
		node := nodes[id]
		slots, ok := loaderNodes[node.ClassType]
		if !ok {
			continue
		}
		for _, s := range slots {
			name, ok := stringInput(node.Inputs, s.InputName)
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("node %s (%s): input %q missing or not a name", id, node.ClassType, s.InputName))
				continue
			}
			out.Dependencies = append(out.Dependencies, draft(id, node.ClassType, s.ModelType, name))
		}
	}
	return out
}

func draft(nodeID, nodeType string, mt types.ModelType, name string) types.DependencyReference {
	return types.DependencyReference{
		NodeID:    nodeID,
		NodeType:  nodeType,
		ModelType: mt,
		ModelName: name,
		Status:    types.ResolutionUnresolved,
	}
}

// stringAt returns the widget value at idx when it is a non-empty string.
func stringAt(values []json.RawMessage, idx int) (string, bool) {
	if idx < 0 || idx >= len(values) {
		return "", false
	}
	return asString(values[idx])
}

// stringInput returns the named input when it is a non-empty string.
// Link-typed inputs (arrays referencing another node) are not declarations.
func stringInput(inputs map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := inputs[name]
	if !ok {
		return "", false
	}
	return asString(raw)
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
