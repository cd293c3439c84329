package project

// Apply reconciles a server-confirmed mutation result with the cached list
// for the given view. The result is authoritative: a record whose state now
// falls outside the view leaves the list, one that falls inside is replaced
// in place or inserted at the head. Pure function; the input slice is not
// modified.
func Apply(cache []Project, view View, updated Project) []Project {
	if !view.Matches(updated) {
		return Remove(cache, updated.ID)
	}

	out := make([]Project, 0, len(cache)+1)
	replaced := false
	for _, p := range cache {
		if p.ID == updated.ID {
			out = append(out, updated)
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append([]Project{updated}, out...)
	}
	return out
}

// Remove returns the cache without the project of the given id. Pure
// function; the input slice is not modified.
func Remove(cache []Project, id string) []Project {
	out := make([]Project, 0, len(cache))
	for _, p := range cache {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
