package feed

// EnumSet is an immutable set of allowed values for an enum-constrained field.
type EnumSet struct {
	values map[string]struct{}
}

func NewEnumSet(values ...string) EnumSet {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return EnumSet{values: m}
}

func (s EnumSet) Contains(v string) bool {
	_, ok := s.values[v]
	return ok
}

// Filter keeps the members of vs, in order. Values outside the set are dropped.
func (s EnumSet) Filter(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}
