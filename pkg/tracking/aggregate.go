package tracking

type pair struct {
	ip     string
	method string
}

// Aggregate collapses outcomes into one change per (ip, method) pair, in
// order of first appearance. Pairs whose net change is zero are omitted.
func Aggregate(outcomes []Outcome) []Change {
	index := make(map[pair]int, len(outcomes))
	changes := make([]Change, 0, len(outcomes))

	for _, o := range outcomes {
		key := pair{ip: o.IP, method: o.Method}
		i, ok := index[key]
		if !ok {
			i = len(changes)
			index[key] = i
			changes = append(changes, Change{IP: o.IP, Method: o.Method})
		}
		if o.Success {
			changes[i].SuccessfulCalls++
		} else {
			changes[i].FailedCalls++
		}
	}

	out := changes[:0]
	for _, c := range changes {
		if !c.IsZero() {
			out = append(out, c)
		}
	}
	return out
}
