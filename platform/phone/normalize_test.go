package phone

import "testing"

func TestSplitDDD(t *testing.T) {
	cases := []struct {
		in, ddd, local string
		ok             bool
	}{
		{"(11) 98888-7777", "11", "988887777", true},
		{"1133334444", "11", "33334444", true},
		{"98888-7777", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		ddd, local, ok := SplitDDD(tc.in)
		if ok != tc.ok || ddd != tc.ddd || local != tc.local {
			t.Fatalf("SplitDDD(%q): expected (%q,%q,%v), got (%q,%q,%v)", tc.in, tc.ddd, tc.local, tc.ok, ddd, local, ok)
		}
	}
}
