package schema

// Job import schema. Title is the natural key: two openings for the same
// role should be created deliberately, not via a duplicated import row.
func init() {
	Register(Entity{
		Type:       EntityJob,
		Label:      "Jobs",
		NaturalKey: "title",
		Fields: []Field{
			{Name: "title", Label: "Job Title", Required: true, Type: FieldString},
			{Name: "department", Label: "Department", Type: FieldString},
			{Name: "location", Label: "Location", Type: FieldString},
			{Name: "employmentType", Label: "Employment Type", Type: FieldSelect,
				Options: []string{"FULL_TIME", "PART_TIME", "CONTRACT", "INTERNSHIP"}},
			{Name: "workLocation", Label: "Work Location", Type: FieldSelect,
				Options: []string{"ONSITE", "REMOTE", "HYBRID"}},
			{Name: "salaryMin", Label: "Min Salary", Type: FieldNumber},
			{Name: "salaryMax", Label: "Max Salary", Type: FieldNumber},
			{Name: "salaryCurrency", Label: "Currency", Type: FieldString},
			{Name: "description", Label: "Description", Type: FieldString},
			{Name: "requirements", Label: "Requirements", Type: FieldString},
			{Name: "skills", Label: "Skills (comma-separated)", Type: FieldString},
			{Name: "openings", Label: "Number of Openings", Type: FieldNumber},
		},
	})
}
