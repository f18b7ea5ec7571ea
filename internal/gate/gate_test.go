// internal/gate/gate_test.go
package gate

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{"affirmative y", "y\n", true},
		{"affirmative yes", "yes\n", true},
		{"affirmative uppercase", "Y\n", true},
		{"affirmative padded", "  y  \n", true},
		{"negative n", "n\n", false},
		{"negative empty line", "\n", false},
		{"negative arbitrary", "sure\n", false},
		{"negative eof", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			g := New(strings.NewReader(tc.input), &out)
			if got := g.Confirm("Delete everything?"); got != tc.want {
				t.Errorf("Confirm with input %q = %v; want %v", tc.input, got, tc.want)
			}
			if !strings.Contains(out.String(), "Delete everything? [y/N]") {
				t.Errorf("prompt not surfaced, got %q", out.String())
			}
		})
	}
}

func TestAllow(t *testing.T) {
	t.Run("force bypasses prompt entirely", func(t *testing.T) {
		var out bytes.Buffer
		g := New(strings.NewReader("n\n"), &out)
		if !Allow(g, true, "really?") {
			t.Error("Allow with force should not consult the gate")
		}
		if out.Len() != 0 {
			t.Errorf("forced Allow should not prompt, wrote %q", out.String())
		}
	})

	t.Run("nil gate without force declines", func(t *testing.T) {
		if Allow(nil, false, "really?") {
			t.Error("nil gate without force must decline")
		}
	})

	t.Run("gate consulted when not forced", func(t *testing.T) {
		var out bytes.Buffer
		g := New(strings.NewReader("y\n"), &out)
		if !Allow(g, false, "really?") {
			t.Error("affirmative answer should allow")
		}
	})
}
