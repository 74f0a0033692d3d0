package threadname

import "testing"

func TestMake(t *testing.T) {
	cases := []struct {
		name, prefix, want string
	}{
		{"", "", ":parse err"},
		{"routin", "", ":parse err"},
		{" routing", "", ":parse err"},
		{"", "pre", "pre:parse err"},
		{"routin", "pre", "pre:parse err"},
		{" routing", "pre", "pre:parse err"},

		{"routing", "", ":"},
		{"routing:", "", ":"},

		{"routing:test_def_ult_x_ro", "RtS", "RtS:test_def_ul"},
		{"routing:test_def_ult_ro", "RtS", "RtS:test_def_ul"},
		{"routing", "RtS", "RtS:"},
		{"routing:test_x_ro", "RtS", "RtS:test_x_ro"},
		{"routing:test_ro", "RtS", "RtS:test_ro"},

		{"routing:test_default_x_ro", "RtS", "RtS:x_ro"},
		{"routing:test_default_ro", "RtS", "RtS:ro"},
	}

	for _, c := range cases {
		got := Make(c.name, c.prefix)
		if got != c.want {
			t.Errorf("Make(%q, %q) = %q, want %q", c.name, c.prefix, got, c.want)
		}
	}
}
