package model

// Candidate is one strategy's raw observation of a person-like field
// cluster on a single page. Confidence is heuristic-specific: structured
// evidence (a labeled table row) scores higher than loose text proximity.
type Candidate struct {
	Name              string  `json:"name"`
	Title             string  `json:"title,omitempty"`
	Email             string  `json:"email,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	ProfileURL        string  `json:"profile_url,omitempty"`
	Department        string  `json:"department,omitempty"`
	ResearchInterests string  `json:"research_interests,omitempty"`
	Strategy          string  `json:"strategy"`
	Confidence        float64 `json:"confidence"`
}

// Record converts a candidate into a PersonRecord, dropping provenance.
func (c Candidate) Record() PersonRecord {
	return PersonRecord{
		Name:              c.Name,
		Title:             c.Title,
		Email:             c.Email,
		Phone:             c.Phone,
		ProfileURL:        c.ProfileURL,
		Department:        c.Department,
		ResearchInterests: c.ResearchInterests,
		Status:            StatusActive,
	}
}
