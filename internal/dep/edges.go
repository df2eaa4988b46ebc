package dep

// AddDependency records that from depends on to. Both symbols must exist.
// If the edge would make the graph cyclic it is removed again and
// ErrCyclicDependency is returned.
func (s *System) AddDependency(from, to string) error {
	fromSym, ok := s.symbols[from]
	if !ok {
		return depErrorf(ErrNoSuchSymbol, "from symbol %q", from)
	}
	toSym, ok := s.symbols[to]
	if !ok {
		return depErrorf(ErrNoSuchSymbol, "to symbol %q", to)
	}

	fromSym.deps[to] = struct{}{}
	toSym.revDeps[from] = struct{}{}

	if s.detectCycle(to, from) {
		delete(fromSym.deps, to)
		delete(toSym.revDeps, from)
		return depErrorf(ErrCyclicDependency, "%s / %s", from, to)
	}
	return nil
}

// HasDependency reports whether from directly depends on to.
func (s *System) HasDependency(from, to string) (bool, error) {
	fromSym, ok := s.symbols[from]
	if !ok {
		return false, depErrorf(ErrNoSuchSymbol, "from symbol %q", from)
	}
	if _, ok := s.symbols[to]; !ok {
		return false, depErrorf(ErrNoSuchSymbol, "to symbol %q", to)
	}
	_, ok = fromSym.deps[to]
	return ok, nil
}

// DeleteDependency removes the direct edge from -> to.
func (s *System) DeleteDependency(from, to string) error {
	fromSym, ok := s.symbols[from]
	if !ok {
		return depErrorf(ErrNoSuchSymbol, "from symbol %q", from)
	}
	toSym, ok := s.symbols[to]
	if !ok {
		return depErrorf(ErrNoSuchSymbol, "to symbol %q", to)
	}
	if _, ok := fromSym.deps[to]; !ok {
		return depErrorf(ErrNoSuchDependency, "%s / %s", to, from)
	}

	delete(fromSym.deps, to)
	delete(toSym.revDeps, from)
	return nil
}

// AddDependencyList appends an ordered dependency list to the symbol to.
// Every non-existent name before the first existing candidate is registered
// as a shadower for to; the first existing candidate (if any) becomes the
// active dependency. If the active dependency would make the graph cyclic
// the whole operation is rolled back and ErrCyclicDependency is returned.
//
// The empty string is not usable as a symbol name.
func (s *System) AddDependencyList(list []string, to string) error {
	toSym, ok := s.symbols[to]
	if !ok {
		return depErrorf(ErrNoSuchSymbol, "%q", to)
	}

	firstExisting := ""
	var registered []string
	for _, el := range list {
		if _, exists := s.symbols[el]; !exists {
			s.shadowers[el] = append(s.shadowers[el], to)
			registered = append(registered, el)
			continue
		}
		firstExisting = el
		break
	}

	toSym.depLists = append(toSym.depLists, append([]string(nil), list...))

	hadRev := false
	if firstExisting != "" {
		active := s.symbols[firstExisting]
		_, hadRev = active.revListSet[to]
		active.revListSet[to] = struct{}{}

		if s.detectCycle(firstExisting, to) {
			toSym.depLists = toSym.depLists[:len(toSym.depLists)-1]
			if !hadRev {
				delete(active.revListSet, to)
			}
			for _, el := range registered {
				s.removeShadower(el, to)
			}
			return depErrorf(ErrCyclicDependency, "list for %s via %s", to, firstExisting)
		}
	}

	return nil
}

// removeShadower drops one occurrence of owner from the shadower entry of
// name.
func (s *System) removeShadower(name, owner string) {
	owners := s.shadowers[name]
	for i, o := range owners {
		if o == owner {
			owners = append(owners[:i], owners[i+1:]...)
			break
		}
	}
	if len(owners) == 0 {
		delete(s.shadowers, name)
	} else {
		s.shadowers[name] = owners
	}
}

// DependencyLists returns copies of the ordered dependency lists of to.
func (s *System) DependencyLists(to string) ([][]string, error) {
	sym, ok := s.symbols[to]
	if !ok {
		return nil, depErrorf(ErrNoSuchSymbol, "%q", to)
	}
	out := make([][]string, len(sym.depLists))
	for i, list := range sym.depLists {
		out[i] = append([]string(nil), list...)
	}
	return out, nil
}

// DeleteDependencyList removes the index-th ordered list of to. If the
// removed list had an active element that is not also the active element of
// another list of to, the reverse registration on that element is dropped.
// Shadower entries for the removed list's non-existent prefix are left in
// place until the name is created or the owner is deleted.
func (s *System) DeleteDependencyList(index int, to string) error {
	sym, ok := s.symbols[to]
	if !ok {
		return depErrorf(ErrNoSuchSymbol, "%q", to)
	}
	if index < 0 || index >= len(sym.depLists) {
		return depErrorf(ErrIndexOutOfRange, "index %d of %q", index, to)
	}

	removed := sym.depLists[index]
	sym.depLists = append(sym.depLists[:index], sym.depLists[index+1:]...)

	active := s.firstExisting(removed)
	if active == "" {
		return nil
	}

	for _, list := range sym.depLists {
		if s.firstExisting(list) == active {
			return nil
		}
	}
	delete(s.symbols[active].revListSet, to)
	return nil
}

// firstExisting returns the first element of list that currently exists, or
// the empty string.
func (s *System) firstExisting(list []string) string {
	for _, el := range list {
		if _, ok := s.symbols[el]; ok {
			return el
		}
	}
	return ""
}

// detectCycle reports whether target is reachable from from, following
// dependency edges and the active element of each ordered list. Visited
// symbols are memoized; acyclicity of the existing graph makes this safe.
func (s *System) detectCycle(from, target string) bool {
	visited := make(map[string]struct{})

	var walk func(cur string) bool
	walk = func(cur string) bool {
		if cur == target {
			return true
		}
		if _, seen := visited[cur]; seen {
			return false
		}
		visited[cur] = struct{}{}

		sym, ok := s.symbols[cur]
		if !ok {
			return false
		}
		for dep := range sym.deps {
			if walk(dep) {
				return true
			}
		}
		for _, list := range sym.depLists {
			if active := s.firstExisting(list); active != "" && walk(active) {
				return true
			}
		}
		return false
	}

	return walk(from)
}
