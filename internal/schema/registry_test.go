package schema

import "testing"

func TestGet_RegisteredEntities(t *testing.T) {
	for _, et := range []EntityType{EntityCandidate, EntityJob} {
		ent, ok := Get(et)
		if !ok {
			t.Fatalf("Get(%s) not found", et)
		}
		if ent.Type != et {
			t.Errorf("Get(%s).Type = %s", et, ent.Type)
		}
		if len(ent.Fields) == 0 {
			t.Errorf("Get(%s) has no fields", et)
		}
	}
}

func TestGet_UnknownEntity(t *testing.T) {
	if _, ok := Get("invoice"); ok {
		t.Error("Get(invoice) should not be found")
	}
}

func TestTypes_SortedAndComplete(t *testing.T) {
	types := Types()
	if len(types) != 2 {
		t.Fatalf("Types() length = %d, want 2", len(types))
	}
	if types[0] != EntityCandidate || types[1] != EntityJob {
		t.Errorf("Types() = %v, want [candidate job]", types)
	}
}

func TestCandidateSchema(t *testing.T) {
	ent, _ := Get(EntityCandidate)

	if ent.NaturalKey != "email" {
		t.Errorf("NaturalKey = %q, want %q", ent.NaturalKey, "email")
	}

	key, ok := ent.FieldByName(ent.NaturalKey)
	if !ok {
		t.Fatal("natural key is not a schema field")
	}
	if key.Type != FieldEmail {
		t.Errorf("email field type = %v, want FieldEmail", key.Type)
	}

	required := ent.RequiredFields()
	want := []string{"firstName", "lastName", "email"}
	if len(required) != len(want) {
		t.Fatalf("RequiredFields() length = %d, want %d", len(required), len(want))
	}
	for i, name := range want {
		if required[i].Name != name {
			t.Errorf("RequiredFields()[%d] = %q, want %q", i, required[i].Name, name)
		}
	}

	source, ok := ent.FieldByName("source")
	if !ok {
		t.Fatal("source field not found")
	}
	if source.Type != FieldSelect || len(source.Options) == 0 {
		t.Error("source should be a select field with options")
	}
}

func TestJobSchema(t *testing.T) {
	ent, _ := Get(EntityJob)

	if ent.NaturalKey != "title" {
		t.Errorf("NaturalKey = %q, want %q", ent.NaturalKey, "title")
	}

	required := ent.RequiredFields()
	if len(required) != 1 || required[0].Name != "title" {
		t.Errorf("RequiredFields() = %v, want only title", required)
	}

	wt, ok := ent.FieldByName("workLocation")
	if !ok {
		t.Fatal("workLocation field not found")
	}
	if wt.Type != FieldSelect {
		t.Error("workLocation should be a select field")
	}
}

func TestFieldByName_Unknown(t *testing.T) {
	ent, _ := Get(EntityCandidate)
	if _, ok := ent.FieldByName("salary"); ok {
		t.Error("FieldByName(salary) should not be found on candidate")
	}
}

func TestFieldsFor(t *testing.T) {
	fields, err := FieldsFor(EntityJob)
	if err != nil {
		t.Fatalf("FieldsFor(job) error = %v", err)
	}
	if fields[0].Name != "title" {
		t.Errorf("first job field = %q, want title", fields[0].Name)
	}

	if _, err := FieldsFor("unknown"); err == nil {
		t.Error("FieldsFor(unknown) expected error")
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		ft   FieldType
		want string
	}{
		{FieldString, "text"},
		{FieldEmail, "email"},
		{FieldPhone, "phone"},
		{FieldDate, "date"},
		{FieldNumber, "number"},
		{FieldSelect, "select"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.ft); got != tt.want {
			t.Errorf("TypeName(%v) = %q, want %q", tt.ft, got, tt.want)
		}
	}
}
