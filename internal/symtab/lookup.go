package symtab

// FindEntry resolves name against parameters, then locals, then
// globals. fn may be nil when resolving outside any function (not used
// by TPC, which has no global-scope expressions, but kept total for
// callers).
func FindEntry(globals *Table, fn *Function, name string) (*Entry, bool) {
	if fn != nil {
		if e, ok := fn.Parameters.Find(name); ok {
			return e, true
		}
		if e, ok := fn.Locals.Find(name); ok {
			return e, true
		}
	}
	return globals.Find(name)
}
