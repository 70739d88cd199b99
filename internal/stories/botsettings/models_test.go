package botsettings

import "testing"

func TestInQuietHours(t *testing.T) {
	tests := []struct {
		name  string
		start int
		end   int
		hour  int
		want  bool
	}{
		{"disabled window", 0, 0, 3, false},
		{"inside simple window", 1, 8, 3, true},
		{"at window start", 1, 8, 1, true},
		{"at window end is outside", 1, 8, 8, false},
		{"outside simple window", 1, 8, 12, false},
		{"wrapping window late evening", 22, 6, 23, true},
		{"wrapping window early morning", 22, 6, 5, true},
		{"wrapping window daytime", 22, 6, 12, false},
		{"wrapping window at end", 22, 6, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{QuietHoursStart: tt.start, QuietHoursEnd: tt.end}
			if got := s.InQuietHours(tt.hour); got != tt.want {
				t.Errorf("InQuietHours(%d) with window %d..%d = %v, want %v",
					tt.hour, tt.start, tt.end, got, tt.want)
			}
		})
	}
}
