package definition

import "fmt"

// ValidationError describes one problem in a definition.
type ValidationError struct {
	Index  int // transition index, -1 for definition-level problems
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Reason
	}
	return fmt.Sprintf("transition %d: %s", e.Index, e.Reason)
}

// AggregateError collects every validation failure.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors returns all validation errors if err is an AggregateError.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}

// Validate checks the definition for missing fields, duplicate transitions,
// an initial state without outgoing transitions and states unreachable from
// the initial state.
func (d *Definition) Validate() error {
	var errs []error
	fail := func(index int, format string, args ...any) {
		errs = append(errs, &ValidationError{Index: index, Reason: fmt.Sprintf(format, args...)})
	}

	if d.Initial == "" {
		fail(-1, "initial state is required")
	}

	type key struct{ from, on string }
	seen := make(map[key]int)
	adjacency := make(map[string][]string)
	for i, t := range d.Transitions {
		if t.From == "" {
			fail(i, "'from' is required")
		}
		if t.On == "" {
			fail(i, "'on' is required")
		}
		if t.From == "" || t.On == "" {
			continue
		}
		k := key{t.From, t.On}
		if prev, dup := seen[k]; dup {
			fail(i, "duplicate transition from %q on %q (first declared at %d)", t.From, t.On, prev)
			continue
		}
		seen[k] = i
		adjacency[t.From] = append(adjacency[t.From], t.Target())
	}

	if d.Initial != "" && len(adjacency[d.Initial]) == 0 && len(errs) == 0 {
		fail(-1, "initial state %q has no outgoing transitions", d.Initial)
	}

	if d.Initial != "" && len(errs) == 0 {
		reachable := map[string]bool{d.Initial: true}
		queue := []string{d.Initial}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, next := range adjacency[current] {
				if !reachable[next] {
					reachable[next] = true
					queue = append(queue, next)
				}
			}
		}
		reported := make(map[string]bool)
		for i, t := range d.Transitions {
			if !reachable[t.From] && !reported[t.From] {
				reported[t.From] = true
				fail(i, "state %q is unreachable from %q", t.From, d.Initial)
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
