package task

// DoneIDs returns the set of task IDs whose status is done.
func DoneIDs(tasks []Task) map[string]bool {
	done := make(map[string]bool, len(tasks))
	for i := range tasks {
		if tasks[i].Status == StatusDone {
			done[tasks[i].ID] = true
		}
	}
	return done
}

// Eligible returns the pending tasks whose dependencies are all done, in list order.
// A dependency that never reaches done (unknown ID, or a task that ended in
// error) keeps its dependents pending indefinitely.
func Eligible(tasks []Task) []Task {
	done := DoneIDs(tasks)

	var ready []Task
	for i := range tasks {
		if tasks[i].Status != StatusPending {
			continue
		}
		allDepsDone := true
		for _, dep := range tasks[i].Dependencies {
			if !done[dep] {
				allDepsDone = false
				break
			}
		}
		if allDepsDone {
			ready = append(ready, tasks[i])
		}
	}
	return ready
}

// FirstActiveForRole returns the first task of role that is pending or in progress.
func FirstActiveForRole(tasks []Task, role string) (Task, bool) {
	for i := range tasks {
		if tasks[i].Role != role {
			continue
		}
		if tasks[i].Status == StatusPending || tasks[i].Status == StatusInProgress {
			return tasks[i], true
		}
	}
	return Task{}, false
}

// PendingForRole returns the pending tasks of role in list order.
func PendingForRole(tasks []Task, role string) []Task {
	var pending []Task
	for i := range tasks {
		if tasks[i].Role == role && tasks[i].Status == StatusPending {
			pending = append(pending, tasks[i])
		}
	}
	return pending
}

// Roles returns the distinct roles in first-seen order.
func Roles(tasks []Task) []string {
	seen := make(map[string]bool)
	var roles []string
	for i := range tasks {
		if !seen[tasks[i].Role] {
			seen[tasks[i].Role] = true
			roles = append(roles, tasks[i].Role)
		}
	}
	return roles
}
