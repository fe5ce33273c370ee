package planner

import "github.com/Strob0t/blackboard/internal/domain/task"

// Namespace prefixes every descriptor ID with prefix and rewrites
// dependencies that point inside the plan. Dependencies on IDs outside the
// plan are kept as written, so a plan can hang off existing tasks.
func Namespace(prefix string, descs []task.Descriptor) []task.Descriptor {
	if prefix == "" {
		return descs
	}
	local := make(map[string]bool, len(descs))
	for _, d := range descs {
		local[d.ID] = true
	}

	out := make([]task.Descriptor, len(descs))
	for i, d := range descs {
		deps := make([]string, len(d.Dependencies))
		for j, dep := range d.Dependencies {
			if local[dep] {
				dep = prefix + "-" + dep
			}
			deps[j] = dep
		}
		out[i] = task.Descriptor{
			ID:           prefix + "-" + d.ID,
			Description:  d.Description,
			Role:         d.Role,
			Dependencies: deps,
		}
	}
	return out
}
