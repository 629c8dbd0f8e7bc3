package fsm

// Equal reports whether s and other are structurally equal: same name, same
// events, same actions, and recursively equal targets.
//
// Names act as identifiers within the compared graphs. Once a name has been
// visited on either side it is assumed equal, which stops recursion on cycles.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	return equalStates(s, other, make(map[string]struct{}))
}

func equalStates(a, b *State, visited map[string]struct{}) bool {
	if a.name != b.name {
		return false
	}
	if _, seen := visited[a.name]; seen {
		return true
	}
	visited[a.name] = struct{}{}

	if len(a.transitions) != len(b.transitions) {
		return false
	}
	for _, event := range a.order {
		ta := a.transitions[event]
		tb, ok := b.transitions[event]
		if !ok || ta.action != tb.action {
			return false
		}
		if !equalStates(ta.target, tb.target, visited) {
			return false
		}
	}
	return true
}
