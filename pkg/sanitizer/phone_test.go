package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "national format unchanged",
			input: "01012345678",
			want:  "01012345678",
		},
		{
			name:  "international with spaces",
			input: "+20 101 234 5678",
			want:  "01012345678",
		},
		{
			name:  "international compact",
			input: "+201512345678",
			want:  "01512345678",
		},
		{
			name:  "national with dashes",
			input: "0112-345-6789",
			want:  "01123456789",
		},
		{
			name:  "leading and trailing spaces",
			input: "  01212345678  ",
			want:  "01212345678",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "foreign number kept as typed",
			input: "+1 212 555 1234",
			want:  "+1 212 555 1234",
		},
		{
			name:  "not a number kept as typed",
			input: "call me",
			want:  "call me",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
