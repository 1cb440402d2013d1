package styletree

// Merge deep-merges trees left to right. For each key, when both the
// existing and the incoming value are trees they are merged recursively;
// otherwise the later value replaces the earlier one wholesale. Inputs are
// never modified and nil trees are skipped.
func Merge(trees ...*Tree) *Tree {
	out := New()
	for _, t := range trees {
		mergeInto(out, t)
	}
	return out
}

func mergeInto(dst, src *Tree) {
	for _, e := range src.Entries() {
		incoming := e.Value
		if existing, ok := dst.Get(e.Key); ok && existing.IsTree() && incoming.IsTree() {
			merged := existing.tree.Clone()
			mergeInto(merged, incoming.tree)
			dst.Set(e.Key, Sub(merged))
			continue
		}
		if incoming.IsTree() {
			incoming = Sub(incoming.tree.Clone())
		}
		dst.Set(e.Key, incoming)
	}
}
