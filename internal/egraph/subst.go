package egraph

import "strings"

// Var is a pattern variable, written with a leading '?'.
type Var string

// IsVar reports whether an atom names a pattern variable.
func IsVar(atom string) bool {
	return len(atom) > 1 && atom[0] == '?'
}

// Subst binds pattern variables to classes. Bindings keep insertion order so
// printing and iteration are deterministic.
type Subst struct {
	vars []Var
	ids  []Id
}

// Get returns the class bound to v.
func (s Subst) Get(v Var) (Id, bool) {
	for i, sv := range s.vars {
		if sv == v {
			return s.ids[i], true
		}
	}
	return 0, false
}

// At returns the class bound to v and panics if v is unbound. Rewrites are
// validated at construction, so an unbound variable here is a bug.
func (s Subst) At(v Var) Id {
	id, ok := s.Get(v)
	if !ok {
		panic("egraph: unbound pattern variable " + string(v))
	}
	return id
}

// Insert binds v to id, replacing any earlier binding.
func (s *Subst) Insert(v Var, id Id) {
	for i, sv := range s.vars {
		if sv == v {
			s.ids[i] = id
			return
		}
	}
	s.vars = append(s.vars, v)
	s.ids = append(s.ids, id)
}

// Clone returns an independent copy.
func (s Subst) Clone() Subst {
	return Subst{
		vars: append([]Var(nil), s.vars...),
		ids:  append([]Id(nil), s.ids...),
	}
}

// Len returns the number of bindings.
func (s Subst) Len() int {
	return len(s.vars)
}

func (s Subst) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range s.vars {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(v))
		sb.WriteString(": ")
		sb.WriteString(s.ids[i].String())
	}
	sb.WriteByte('}')
	return sb.String()
}
