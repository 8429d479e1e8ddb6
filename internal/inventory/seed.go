package inventory

// DefaultTools is the toolroom a fresh process starts with.
func DefaultTools() []Tool {
	return []Tool{
		{
			ID:           "tool_1",
			Name:         "Socket Wrench Set",
			Category:     "Hand Tools",
			Quantity:     1,
			Condition:    ConditionWorking,
			IconKeywords: []string{"wrench", "socket", "ratchet"},
			Properties:   map[string]string{"size": "Metric", "pieces": "42"},
		},
		{
			ID:           "tool_2",
			Name:         "Cutoff Wheels",
			Category:     "Consumables",
			Quantity:     3,
			Condition:    ConditionWorking,
			IconKeywords: []string{"wheel", "cutting", "disc"},
			Properties:   map[string]string{"size": "4.5 inch", "grit": "80"},
		},
	}
}

// Seed inserts the default tools, keeping their fixed ids. Seeding twice
// overwrites the defaults rather than duplicating them.
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range DefaultTools() {
		t := t.clone()
		s.insertTool(&t)
	}
}
