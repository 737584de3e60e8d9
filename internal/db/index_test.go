package db

import "testing"

func validDefinition() IndexDefinition {
	return IndexDefinition{
		Name:     "campusqa_vectors_idx",
		Prefixes: []string{"campusqa_vectors:doc:"},
		Fields: []IndexField{
			{Name: "__content", Type: IndexFieldText},
			{Name: "__vector", Alias: "vector", Type: IndexFieldVector, VectorDim: 1536},
		},
	}
}

func TestValidateOK(t *testing.T) {
	def := validDefinition()
	if err := def.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidateRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IndexDefinition)
	}{
		{"empty name", func(d *IndexDefinition) { d.Name = "" }},
		{"invalid name", func(d *IndexDefinition) { d.Name = "bad name!" }},
		{"no fields", func(d *IndexDefinition) { d.Fields = nil }},
		{"unnamed field", func(d *IndexDefinition) { d.Fields[0].Name = "" }},
		{"duplicate field", func(d *IndexDefinition) { d.Fields[1].Name = d.Fields[0].Name }},
		{"invalid alias", func(d *IndexDefinition) { d.Fields[1].Alias = "bad alias!" }},
		{"vector without dim", func(d *IndexDefinition) { d.Fields[1].VectorDim = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)
			if err := def.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"idx", "campusqa_vectors_idx", "a:b-c_1"}
	for _, s := range valid {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "has space", "semi;colon", "star*"}
	for _, s := range invalid {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true, want false", s)
		}
	}
}
