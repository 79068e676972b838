package validation

import "testing"

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "acme", false},
		{"mixed case", "AcmeCorp", false},
		{"with digits", "acme2", false},
		{"minimum length", "abc", false},
		{"too short", "ab", true},
		{"empty", "", true},
		{"leading digit", "2acme", true},
		{"hyphen", "acme-corp", true},
		{"underscore", "acme_corp", true},
		{"slash", "acme/corp", true},
		{"space", "acme corp", true},
		{"unicode", "acmé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
