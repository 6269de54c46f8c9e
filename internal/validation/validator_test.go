package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Name  string   `json:"name" validate:"required,max=5"`
	Mode  string   `json:"mode" validate:"oneof=cosine content"`
	Port  int      `koanf:"port" validate:"gte=1,lte=65535"`
	Items []string `json:"items" validate:"required,dive,min=1"`
}

func TestValidateStruct(t *testing.T) {
	valid := sample{Name: "ok", Mode: "cosine", Port: 80, Items: []string{"a"}}
	if err := ValidateStruct(valid); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}

	tests := []struct {
		name      string
		mutate    func(*sample)
		wantField string
		wantMsg   string
	}{
		{"missing name", func(s *sample) { s.Name = "" }, "name", "name is required"},
		{"long name", func(s *sample) { s.Name = "toolong" }, "name", "at most 5 characters"},
		{"bad mode", func(s *sample) { s.Mode = "pearson" }, "mode", "one of: cosine content"},
		{"koanf tag name", func(s *sample) { s.Port = 0 }, "port", "greater than or equal to 1"},
		{"dive", func(s *sample) { s.Items = []string{""} }, "items[0]", "at least 1 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			err := ValidateStruct(s)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if len(err.Fields) != 1 {
				t.Fatalf("expected 1 field error, got %+v", err.Fields)
			}
			if err.Fields[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", err.Fields[0].Field, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("message %q should contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	if err := ValidateRange("rating", 5, 0.5, 5); err != nil {
		t.Errorf("upper bound should be valid, got %v", err)
	}
	if err := ValidateRange("rating", 0.5, 0.5, 5); err != nil {
		t.Errorf("lower bound should be valid, got %v", err)
	}

	err := ValidateRange("ratings[1].rating", 7, 0.5, 5)
	if err == nil {
		t.Fatal("expected out of range error")
	}
	if !strings.Contains(err.Error(), "ratings[1].rating must be between 0.5 and 5") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
