package a2a

// BuildAgentCard describes the blackboard as a single agent whose skills are
// the roles it currently knows about. Sending a task to a skill queues work
// for that role.
func BuildAgentCard(baseURL, version string, roles []string) AgentCard {
	skills := make([]Skill, 0, len(roles))
	for _, role := range roles {
		skills = append(skills, Skill{
			ID:          role,
			Name:        role,
			Description: "Queue a task for the " + role + " role",
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		})
	}
	return AgentCard{
		Name:        "Blackboard",
		Description: "Role-based task blackboard for cooperating agents",
		URL:         baseURL,
		Version:     version,
		Skills:      skills,
	}
}
