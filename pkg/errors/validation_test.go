package errors

import (
	"strings"
	"testing"
)

func TestValidateIdentity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Cache", false},
		{"valid dotted", "app.services.Cache", false},
		{"valid backslash namespace", `App\Seeders\UserSeeder`, false},
		{"valid dash", "core-db", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"space", "my cache", true},
		{"tab", "a\tb", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidDeclaration) {
				t.Errorf("ValidateIdentity(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidDeclaration)
			}
		})
	}
}

func TestValidateConventionPart(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"subdir", "seeders", false},
		{"suffix", "Seeder", false},

		{"empty", "", true},
		{"slash", "db/seeders", true},
		{"backslash", `db\seeders`, true},
		{"traversal", "..", true},
		{"glob", "*", true},
		{"class", "[ab]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConventionPart(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConventionPart(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "modules", false},
		{"absolute", "/srv/app", false},
		{"dot", ".", false},

		{"empty", "", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("a", 5000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
