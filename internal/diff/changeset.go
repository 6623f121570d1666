package diff

import "github.com/everstacklabs/modelrouter/internal/catalog"

// ChangeSet represents the complete diff between two routing catalogs.
type ChangeSet struct {
	Added        []ProfileChange
	Removed      []ProfileChange
	Updated      []ProfileUpdate
	Routing      []RoutingChange
	DefaultModel *FieldChange
	Unchanged    int
}

// ProfileChange represents an added or removed profile.
type ProfileChange struct {
	Name    string
	Profile catalog.Profile
}

// ProfileUpdate represents a profile present in both catalogs with field changes.
type ProfileUpdate struct {
	Name    string
	Changes []FieldChange
}

// FieldChange records a single field change for diff reporting.
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

// RoutingChange records a category whose ranked candidates changed.
// OldModel and NewModel are the models each catalog would select.
type RoutingChange struct {
	Category      string
	OldModel      string
	NewModel      string
	OldCandidates []string
	NewCandidates []string
}

// SelectionChanged reports whether the selected model differs.
func (rc RoutingChange) SelectionChanged() bool {
	return rc.OldModel != rc.NewModel
}

// HasChanges reports whether the changeset has any modifications.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.Added) > 0 || len(cs.Removed) > 0 || len(cs.Updated) > 0 ||
		len(cs.Routing) > 0 || cs.DefaultModel != nil
}

// TotalChanged returns the count of added, removed and updated profiles.
func (cs *ChangeSet) TotalChanged() int {
	return len(cs.Added) + len(cs.Removed) + len(cs.Updated)
}
