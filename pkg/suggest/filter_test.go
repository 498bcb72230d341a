package suggest

import "testing"

func userList() []Suggestion {
	return []Suggestion{
		UserSuggestion{Login: "matt", DisplayName: "Matt Mullen", ImageURL: "https://gravatar.com/matt"},
		UserSuggestion{Login: "photomatt", DisplayName: "Photo Matt"},
		UserSuggestion{Login: "elena", DisplayName: "Elena R."},
		UserSuggestion{Login: "jsmith", DisplayName: "John Smith"},
	}
}

func TestFilterEmptyQueryReturnsEverything(t *testing.T) {
	items := userList()
	got := Filter(items, "")
	if len(got) != len(items) {
		t.Fatalf("empty query returned %d items, want %d", len(got), len(items))
	}
	for i := range items {
		if got[i].Key() != items[i].Key() {
			t.Errorf("item %d reordered: got %q want %q", i, got[i].Key(), items[i].Key())
		}
	}
}

func TestFilterMatching(t *testing.T) {
	testCases := []struct {
		name  string
		query string
		want  []string
	}{
		{"substring of key", "matt", []string{"matt", "photomatt"}},
		{"case insensitive query", "MATT", []string{"matt", "photomatt"}},
		{"match on label only", "smith", []string{"jsmith"}},
		{"label case folded", "john", []string{"jsmith"}},
		{"mid-string match", "tomat", []string{"photomatt"}},
		{"no matches", "zzz", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(userList(), tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("Filter(%q) returned %d items, want %d", tc.query, len(got), len(tc.want))
			}
			for i, key := range tc.want {
				if got[i].Key() != key {
					t.Errorf("Filter(%q)[%d] = %q, want %q", tc.query, i, got[i].Key(), key)
				}
			}
		})
	}
}

// Every returned item must come from the input set, in input order.
func TestFilterReturnsSubsetInOrder(t *testing.T) {
	items := []Suggestion{
		SiteSuggestion{Subdomain: "daily", Title: "Daily Post"},
		SiteSuggestion{Subdomain: "weekly", Title: "Weekly Digest"},
		SiteSuggestion{Subdomain: "dailynews", Title: "News"},
	}
	got := Filter(items, "daily")
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].Key() != "daily" || got[1].Key() != "dailynews" {
		t.Errorf("order not preserved: %q, %q", got[0].Key(), got[1].Key())
	}
}

func TestStripTrigger(t *testing.T) {
	testCases := []struct {
		input     string
		wantKind  Kind
		wantQuery string
		wantOK    bool
	}{
		{"@matt", KindMention, "matt", true},
		{"+daily", KindCrossPost, "daily", true},
		{"@", KindMention, "", true},
		{"+", KindCrossPost, "", true},
		{"matt", 0, "", false},
		{"", 0, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			kind, query, ok := StripTrigger(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("StripTrigger(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if kind != tc.wantKind || query != tc.wantQuery {
				t.Errorf("StripTrigger(%q) = (%v, %q), want (%v, %q)",
					tc.input, kind, query, tc.wantKind, tc.wantQuery)
			}
		})
	}
}
