package deployplan

import "strings"

// String renders the plan the way original_source/cli/src/deploy/plan.rs's
// Display impl does: "No changes" for an empty plan, otherwise a
// "Changes:" header followed by one "+ name" / "~ name" / "- name" line
// per step, creates first, then updates, then deletes. The original
// colorizes these prefixes with console::style; the CLI layer is
// responsible for any terminal coloring, since this package has no
// terminal dependency.
func (p Plan) String() string {
	if !p.HasSteps() {
		return "No changes"
	}

	var b strings.Builder
	b.WriteString("Changes:\n")
	for _, h := range p.Creates {
		b.WriteString("\t+ " + h.Name + "\n")
	}
	for _, h := range p.Updates {
		b.WriteString("\t~ " + h.Name + "\n")
	}
	for _, h := range p.Deletes {
		b.WriteString("\t- " + h.Name + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
