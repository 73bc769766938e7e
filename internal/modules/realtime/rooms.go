package realtime

import "sort"

// PresenceRoom is the implicit room every connection joins, keyed by its own
// user id, so any other connection can address it without a socket id.
func PresenceRoom(userID string) string {
	return "user:" + userID
}

// PairRoom computes the shared chat room for two users. Ids are sorted so
// both participants independently compute the identical name regardless of
// who initiates.
func PairRoom(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return "chat:" + ids[0] + ":" + ids[1]
}
