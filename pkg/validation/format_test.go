package validation

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format    string
		expectErr bool
	}{
		{"pretty", false},
		{"csv", false},
		{"json", true},
		{"", true},
		{"CSV", true},
		{" pretty ", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateOutputFormat(%q) expected error but got none", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateOutputFormat(%q) unexpected error = %v", tt.format, err)
			}
		})
	}
}

func TestValidateOutputFormatNamesInput(t *testing.T) {
	err := ValidateOutputFormat("xml")
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("ValidateOutputFormat(xml) = %v, expected message naming the format", err)
	}
}
