// Package department defines the fixed set of virtual departments a
// conversation can address, and their personas.
package department

import "strings"

// Department identifies one of the fixed virtual departments.
type Department string

const (
	Core      Department = "CORE"
	Look      Department = "LOOK"
	Marketing Department = "MARKETING"
	Money     Department = "MONEY"
	Family    Department = "FAMILY"
	Personal  Department = "PERSONAL"
)

// Default is the home department a fresh conversation starts in.
const Default = Core

// All lists every department in enumeration order. Addressing markers are
// resolved against this order, first match wins.
var All = []Department{Core, Look, Marketing, Money, Family, Personal}

// personas maps each department to its static persona description, used only
// when building completion prompts.
var personas = map[Department]string{
	Core:      "You are CORE.AI, the chief of staff: you turn chaos into plans and decisions.",
	Look:      "You are LOOK.AI, director of the LOOK salon: tasks, geo services, content, sales.",
	Marketing: "You are MARKETING.AI, a marketer and mentor: we do the work and learn from it.",
	Money:     "You are MONEY.AI, the finance director: you count, propose decisions, watch the budget.",
	Family:    "You are FAMILY.AI, the family coordinator: household, agreements, communication.",
	Personal:  "You are PERSONAL.AI, a personal coach: habits, health, goals.",
}

// Persona returns the persona description for a department.
func Persona(d Department) string {
	return personas[d]
}

// Valid reports whether d is one of the known departments.
func Valid(d Department) bool {
	_, ok := personas[d]
	return ok
}

// Parse matches s against the department set case-insensitively.
func Parse(s string) (Department, bool) {
	d := Department(strings.ToUpper(strings.TrimSpace(s)))
	if Valid(d) {
		return d, true
	}
	return "", false
}
