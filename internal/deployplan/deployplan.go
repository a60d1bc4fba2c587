// Package deployplan implements the client-side three-way diff (C9) of a
// local handler set against a project's remote handler set, producing a
// deterministic, ordered set of steps for the CLI to render and execute.
//
// Grounded on original_source/cli/src/deploy/{plan.rs,create.rs,update.rs,
// delete.rs,components.rs}, reimplemented directly over
// map[string]HandlerDescriptor keyed by name rather than porting the
// original's HashSet-with-name-only-equality-plus-independently-sorted-zip
// trick, which Go's lack of a name-only-equality HashSet makes awkward;
// an explicit map keyed by name plus a sort step is the idiomatic Go
// equivalent.
package deployplan

import "sort"

// HandlerDescriptor is the {name, language, fingerprint} record the diff
// operates over; set identity is Name alone.
type HandlerDescriptor struct {
	Name        string
	Language    string
	Fingerprint string
}

// Plan is the result of a three-way diff: handlers to create, update, and
// delete, each sorted by name for deterministic rendering.
type Plan struct {
	Creates []HandlerDescriptor
	Updates []HandlerDescriptor
	Deletes []HandlerDescriptor
}

// HasSteps reports whether the plan has any work to do.
func (p Plan) HasSteps() bool {
	return len(p.Creates) > 0 || len(p.Updates) > 0 || len(p.Deletes) > 0
}

// Steps returns the total number of steps across all three sets.
func (p Plan) Steps() int {
	return len(p.Creates) + len(p.Updates) + len(p.Deletes)
}

// Compute diffs a local handler set against a remote one:
//   - create = L \ R (by name)
//   - delete = R \ L
//   - update = { x ∈ L ∩ R | L.fingerprint != R.fingerprint }
//
// Steps are meant to execute strictly in the order creates, updates,
// deletes (the CLI's deploy command is responsible for that ordering;
// Compute only computes the sets).
func Compute(local, remote []HandlerDescriptor) Plan {
	remoteByName := make(map[string]HandlerDescriptor, len(remote))
	for _, r := range remote {
		remoteByName[r.Name] = r
	}
	localByName := make(map[string]HandlerDescriptor, len(local))
	for _, l := range local {
		localByName[l.Name] = l
	}

	var plan Plan
	for _, l := range local {
		r, ok := remoteByName[l.Name]
		if !ok {
			plan.Creates = append(plan.Creates, l)
			continue
		}
		if l.Fingerprint != r.Fingerprint {
			plan.Updates = append(plan.Updates, l)
		}
	}
	for _, r := range remote {
		if _, ok := localByName[r.Name]; !ok {
			plan.Deletes = append(plan.Deletes, r)
		}
	}

	sortByName(plan.Creates)
	sortByName(plan.Updates)
	sortByName(plan.Deletes)
	return plan
}

func sortByName(rows []HandlerDescriptor) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
}
