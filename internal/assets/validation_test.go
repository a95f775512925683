package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		valid bool
	}{
		{"default", true},
		{"plain", true},
		{"dark-2", true},
		{"my_style", true},
		{"9lives", true},
		{"", false},
		{"MyStyle", false},
		{"-dash", false},
		{"style.css", false},
		{"../secret", false},
		{"path/to/style", false},
		{`path\to\style`, false},
		{"with space", false},
		{strings.Repeat("a", maxNameLength), true},
		{strings.Repeat("a", maxNameLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if tt.valid && err != nil {
				t.Errorf("ValidateAssetName(%q) = %v, want nil", tt.input, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidAssetName) {
				t.Errorf("ValidateAssetName(%q) = %v, want ErrInvalidAssetName", tt.input, err)
			}
		})
	}
}
