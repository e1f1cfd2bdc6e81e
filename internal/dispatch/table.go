package dispatch

// buildActionTable assembles the flat method table over all 38 actions:
// projects (5), links (3), commands (7), tasks (17), dependencies (3),
// memory (3).
func (d *Dispatcher) buildActionTable() map[string]actionDef {
	table := make(map[string]actionDef, 38)
	for _, group := range []map[string]actionDef{
		projectActions(),
		linkActions(),
		commandActions(),
		taskActions(),
		dependencyActions(),
		memoryActions(),
	} {
		for name, def := range group {
			table[name] = def
		}
	}
	return table
}
