package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Jane Doe", "Jane Doe"},
		{"  Jane   Doe  ", "Jane Doe"},
		{"", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"donor", "donor"},
		{" Recipient ", "recipient"},
		{"ADMIN", "admin"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Role(tt.input); got != tt.want {
				t.Errorf("Role(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBloodType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"O+", "O+"},
		{" ab- ", "AB-"},
		{"a +", "A+"},
		{"x", "X"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := BloodType(tt.input); got != tt.want {
				t.Errorf("BloodType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUrgency(t *testing.T) {
	if got := Urgency("  Critical "); got != "critical" {
		t.Errorf("Urgency = %q, want critical", got)
	}
	if got := Units(" 4 "); got != 4 {
		t.Errorf("Units = %d, want 4", got)
	}
}
