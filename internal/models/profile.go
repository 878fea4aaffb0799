package models

// ProfileRecord is the structured medical/demographic profile for one
// Identity. All fields are optional free-text strings; an absent row is
// indistinguishable from an empty record.
type ProfileRecord struct {
	OwnerID          string
	DateOfBirth      string
	Gender           string
	BloodGroup       string
	Phone            string
	EmergencyContact string
	Height           string
	Weight           string
	Diseases         string
	Allergies        string
	Medications      string
	Surgeries        string
	Lifestyle        string
	Notes            string
}

// Fields returns the optional profile fields in a fixed order. Used for
// completion accounting; OwnerID is identity, not content, and is excluded.
func (r *ProfileRecord) Fields() []string {
	return []string{
		r.DateOfBirth, r.Gender, r.BloodGroup, r.Phone, r.EmergencyContact,
		r.Height, r.Weight, r.Diseases, r.Allergies, r.Medications,
		r.Surgeries, r.Lifestyle, r.Notes,
	}
}
