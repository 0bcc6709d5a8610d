package survey

import "testing"

func TestParseEvent(t *testing.T) {
	cases := []struct {
		key, payload string
		want         Event
	}{
		{"start", "", Begin{}},
		{"type", "hero", SelectCategory{Key: "hero"}},
		{"num", "3", SelectCategory{Key: "3"}},
		{"type_hero", "", SelectCategory{Key: "hero"}},
		{"num_3", "", SelectCategory{Key: "3"}},
		{"ans", "O1", SelectOption{Label: "O1"}},
		{"ans_O1", "", SelectOption{Label: "O1"}},
		{"prev", "", Navigate{Delta: -1}},
		{"prev_q", "", Navigate{Delta: -1}},
		{"next", "", Navigate{Delta: 1}},
		{"next_q", "", Navigate{Delta: 1}},
		{"submit", "", Submit{}},
		{"final_submit", "", Submit{}},
		{"cancel", "", Cancel{}},
		{"type", "", Unrecognized{Token: "type"}},
		{"bogus", "", Unrecognized{Token: "bogus"}},
		{"bogus", "x", Unrecognized{Token: "bogus|x"}},
		{" start ", "", Begin{}},
	}

	for _, tc := range cases {
		got := ParseEvent(tc.key, tc.payload)
		if got != tc.want {
			t.Errorf("ParseEvent(%q, %q) = %#v, want %#v", tc.key, tc.payload, got, tc.want)
		}
	}
}
