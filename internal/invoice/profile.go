package invoice

// ProfileKind tags an extraction profile.
type ProfileKind string

const (
	ProfileGeneric     ProfileKind = "generic"
	ProfileSpecialized ProfileKind = "specialized"
)

// Profile is chosen once per document by the classifier.
type Profile struct {
	Kind       ProfileKind `json:"kind"`
	TemplateID string      `json:"template_id,omitempty"`
}

// Generic is the profile used when no template matches.
func Generic() Profile { return Profile{Kind: ProfileGeneric} }

// Specialized selects the template registered under id.
func Specialized(id string) Profile {
	return Profile{Kind: ProfileSpecialized, TemplateID: id}
}

func (p Profile) IsSpecialized() bool { return p.Kind == ProfileSpecialized }

func (p Profile) String() string {
	if p.IsSpecialized() {
		return string(p.Kind) + ":" + p.TemplateID
	}
	return string(p.Kind)
}
