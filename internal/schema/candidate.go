package schema

// Candidate import schema. Email is the natural key used for duplicate
// detection during import.
func init() {
	Register(Entity{
		Type:       EntityCandidate,
		Label:      "Candidates",
		NaturalKey: "email",
		Fields: []Field{
			{Name: "firstName", Label: "First Name", Required: true, Type: FieldString},
			{Name: "lastName", Label: "Last Name", Required: true, Type: FieldString},
			{Name: "email", Label: "Email", Required: true, Type: FieldEmail},
			{Name: "phone", Label: "Phone", Type: FieldPhone},
			{Name: "linkedinUrl", Label: "LinkedIn URL", Type: FieldString},
			{Name: "currentTitle", Label: "Current Title", Type: FieldString},
			{Name: "currentCompany", Label: "Current Company", Type: FieldString},
			{Name: "location", Label: "Location", Type: FieldString},
			{Name: "skills", Label: "Skills (comma-separated)", Type: FieldString},
			{Name: "experience", Label: "Years of Experience", Type: FieldNumber},
			{Name: "source", Label: "Source", Type: FieldSelect,
				Options: []string{"LinkedIn", "Indeed", "Referral", "Website", "Other"}},
			{Name: "notes", Label: "Notes", Type: FieldString},
			{Name: "tags", Label: "Tags (comma-separated)", Type: FieldString},
		},
	})
}
