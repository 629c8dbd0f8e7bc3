package fsm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyGraph is returned when loading an edge list with no edges.
var ErrEmptyGraph = errors.New("edge list is empty")

// Edge is one serialized transition. An empty Action is encoded as null.
type Edge struct {
	Source string
	Event  string
	Action string
	Target string
}

// MarshalJSON encodes the edge as [source, event, action, target].
func (e Edge) MarshalJSON() ([]byte, error) {
	var action any
	if e.Action != "" {
		action = e.Action
	}
	return json.Marshal([]any{e.Source, e.Event, action, e.Target})
}

// UnmarshalJSON decodes a 4-element array. Only the action may be null.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var row []*string
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("edge must be an array of strings: %w", err)
	}
	if len(row) != 4 {
		return fmt.Errorf("edge must have 4 elements, got %d", len(row))
	}
	if row[0] == nil || row[1] == nil || row[3] == nil {
		return fmt.Errorf("edge source, event and target must not be null")
	}

	*e = Edge{Source: *row[0], Event: *row[1], Target: *row[3]}
	if row[2] != nil {
		e.Action = *row[2]
	}
	return nil
}

// Edges enumerates the transitions reachable from s depth-first. Each state's
// outgoing edges are emitted once, the first time the state is reached, so
// the walk terminates on cycles while still covering every edge.
func (s *State) Edges() []Edge {
	edges := []Edge{}
	collectEdges(s, make(map[string]struct{}), &edges)
	return edges
}

func collectEdges(s *State, visited map[string]struct{}, edges *[]Edge) {
	if _, seen := visited[s.name]; seen {
		return
	}
	visited[s.name] = struct{}{}

	for _, event := range s.order {
		t := s.transitions[event]
		*edges = append(*edges, Edge{
			Source: s.name,
			Event:  event,
			Action: t.action,
			Target: t.target.name,
		})
		collectEdges(t.target, visited, edges)
	}
}

// Dump serializes the reachable graph as a JSON array of edges.
func (s *State) Dump() ([]byte, error) {
	return json.Marshal(s.Edges())
}

// LoadState rebuilds a graph from Dump output and returns its root.
//
// The format only records edges, so a state without transitions dumps as []
// and cannot be loaded back: an empty list is a *ConfigurationError wrapping
// ErrEmptyGraph.
func LoadState(data []byte) (*State, error) {
	edges, err := DecodeEdges(data)
	if err != nil {
		return nil, err
	}
	return StateFromEdges(edges)
}

// StateFromEdges rebuilds a graph from an ordered edge list. The source of the
// first edge is returned as the root.
func StateFromEdges(edges []Edge) (*State, error) {
	states := make(map[string]*State)
	return replay(edges, func(name string) *State {
		s, ok := states[name]
		if !ok {
			s = NewState(name)
			states[name] = s
		}
		return s
	})
}

// DecodeEdges parses a serialized edge list.
func DecodeEdges(data []byte) ([]Edge, error) {
	var edges []Edge
	if err := json.Unmarshal(data, &edges); err != nil {
		return nil, fmt.Errorf("failed to decode edges: %w", err)
	}
	return edges, nil
}

// replay feeds every edge through the builder. Self-loops rely on Do's
// default target instead of an explicit GoIn.
func replay(edges []Edge, vivify func(name string) *State) (*State, error) {
	if len(edges) == 0 {
		return nil, &ConfigurationError{Err: ErrEmptyGraph}
	}

	for _, e := range edges {
		src := vivify(e.Source)
		src.resetCursor()
		src.Do(e.Action)
		if e.Target != e.Source {
			src.GoIn(vivify(e.Target))
		}
		src.When(e.Event)
		src.resetCursor()
	}
	return vivify(edges[0].Source), nil
}
