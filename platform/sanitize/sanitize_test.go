package sanitize

import "testing"

func TestQuery(t *testing.T) {
	cases := map[string]string{
		"  cafe   amsterdam ": "cafe amsterdam",
		"cafe\tnoord\n":      "cafe noord",
		"Cafe\u0301":          "Caf\u00e9",
		"":                   "",
	}
	for in, want := range cases {
		if got := Query(in); got != want {
			t.Errorf("Query(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLabel(t *testing.T) {
	got := Label(`<span class="street-address">Main St 1</span>,  <b>Town</b>`)
	if got != "Main St 1, Town" {
		t.Fatalf("Label() = %q", got)
	}

	if got := Label("&lt;script&gt;x&lt;/script&gt;"); got != "x" {
		t.Fatalf("expected encoded tags to be stripped, got %q", got)
	}
}
