package definition

import (
	"fmt"

	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Transition is one declared edge.
type Transition struct {
	From string `json:"from" yaml:"from"`
	On   string `json:"on" yaml:"on"`
	Do   string `json:"do,omitempty" yaml:"do,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`
}

// Target returns the destination state, defaulting to the source.
func (t Transition) Target() string {
	if t.To == "" {
		return t.From
	}
	return t.To
}

// Definition is the declarative form of an automaton.
type Definition struct {
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Initial     string       `json:"initial" yaml:"initial"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`
}

// rawDefinition mirrors the file layout, including key aliases.
type rawDefinition struct {
	Name        string          `mapstructure:"name"`
	Initial     string          `mapstructure:"initial"`
	Start       string          `mapstructure:"start"`
	Transitions []rawTransition `mapstructure:"transitions"`
}

type rawTransition struct {
	From   string `mapstructure:"from"`
	On     string `mapstructure:"on"`
	When   string `mapstructure:"when"`
	Event  string `mapstructure:"event"`
	Do     string `mapstructure:"do"`
	Action string `mapstructure:"action"`
	To     string `mapstructure:"to"`
	Target string `mapstructure:"target"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Parse decodes a YAML or JSON definition. It does not validate it.
func Parse(data []byte) (*Definition, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("definition is empty")
	}

	var raw rawDefinition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}

	def := &Definition{
		Name:        raw.Name,
		Initial:     firstNonEmpty(raw.Initial, raw.Start),
		Transitions: make([]Transition, 0, len(raw.Transitions)),
	}
	for _, rt := range raw.Transitions {
		def.Transitions = append(def.Transitions, Transition{
			From: rt.From,
			On:   firstNonEmpty(rt.On, rt.When, rt.Event),
			Do:   firstNonEmpty(rt.Do, rt.Action),
			To:   firstNonEmpty(rt.To, rt.Target),
		})
	}
	return def, nil
}

// Build validates the definition and constructs an automaton through the
// name-based builder.
func (d *Definition) Build(opts ...fsm.Option) (*fsm.Automaton, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	a := fsm.New(opts...).StartFrom(d.Initial)
	for _, t := range d.Transitions {
		a.ComingFrom(t.From).When(t.On).Doing(t.Do).GoIn(t.Target())
	}
	if err := a.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

// FromAutomaton exports the graph reachable from the initial state.
func FromAutomaton(name string, a *fsm.Automaton) *Definition {
	def := &Definition{Name: name, Transitions: []Transition{}}
	if s := a.InitialState(); s != nil {
		def.Initial = s.Name()
	}
	for _, e := range a.Edges() {
		t := Transition{From: e.Source, On: e.Event, Do: e.Action, To: e.Target}
		if t.To == t.From {
			t.To = ""
		}
		def.Transitions = append(def.Transitions, t)
	}
	return def
}

// Marshal encodes the definition as YAML.
func (d *Definition) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}
