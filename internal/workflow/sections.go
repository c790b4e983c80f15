package workflow

import (
	"strings"

	"edms/internal/model"
)

// Sections knows which route-section names belong to the command group
// (XO, SgtMaj, ...) rather than to battalion staff.
type Sections struct {
	names   []string
	command map[string]struct{}
}

// NewSections builds a lookup over the command-section names.
func NewSections(commandSections []string) Sections {
	out := Sections{command: make(map[string]struct{}, len(commandSections))}
	for _, s := range commandSections {
		if k := sectionKey(s); k != "" {
			out.command[k] = struct{}{}
			out.names = append(out.names, strings.TrimSpace(s))
		}
	}
	return out
}

func sectionKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Names returns the configured command sections in configuration order.
func (s Sections) Names() []string {
	return s.names
}

func (s Sections) first() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[0]
}

// IsCommand reports whether name is a command section.
func (s Sections) IsCommand(name string) bool {
	_, ok := s.command[sectionKey(name)]
	return ok
}

// LastBattalionSection returns the most recent battalion section that held r,
// read from the structured from/to fields of the activity log. Command
// sections and destinations outside the unit are skipped.
func (s Sections) LastBattalionSection(r *model.Request) string {
	for i := len(r.Activity) - 1; i >= 0; i-- {
		a := r.Activity[i]
		if a.ToSection != "" && !leavesUnit(a.Kind) && !s.IsCommand(a.ToSection) {
			return a.ToSection
		}
		if a.FromSection != "" && leftBattalion(a) && !s.IsCommand(a.FromSection) {
			return a.FromSection
		}
	}
	return ""
}

// leftBattalion reports whether a's FromSection was held at battalion level.
// Entries written before FromStage was recorded fall back to the kind.
func leftBattalion(a model.Activity) bool {
	if a.FromStage != "" {
		return a.FromStage == model.StageBattalionReview
	}
	return a.Kind != model.ActionReturnToUnit
}

func leavesUnit(a model.Action) bool {
	switch a {
	case model.ActionRouteInstallation, model.ActionRouteHQMC, model.ActionRouteExternal:
		return true
	}
	return false
}
