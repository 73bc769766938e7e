package realtime

import "testing"

func TestPairRoomCommutative(t *testing.T) {
	cases := []struct {
		a, b, want string
	}{
		{"alice", "bob", "chat:alice:bob"},
		{"bob", "alice", "chat:alice:bob"},
		{"u2", "u10", "chat:u10:u2"}, // lexicographic, not numeric
		{"same", "same", "chat:same:same"},
	}

	for _, tc := range cases {
		if got := PairRoom(tc.a, tc.b); got != tc.want {
			t.Errorf("PairRoom(%q, %q) = %q, want %q", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPresenceRoom(t *testing.T) {
	if got := PresenceRoom("abc-123"); got != "user:abc-123" {
		t.Fatalf("PresenceRoom = %q", got)
	}
}
