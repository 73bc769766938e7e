package legacyimport

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/littlenest/core/internal/models"
)

func TestParseDumpEntry(t *testing.T) {
	tests := []struct {
		name           string
		wantCollection string
		wantFormat     string
		wantOK         bool
	}{
		{"dump/daycare/users.bson", "users", "bson", true},
		{"dump/daycare/users.metadata.json", "", "", false},
		{"classrooms.bson", "rooms", "bson", true},
		{"daycare/children.json", "children", "json", true},
		{"dailyreports.bson", "dailyreports", "bson", true},
		{"manifest.json", "", "", false},
		{"prelude.json", "", "", false},
		{"sessions.bson", "", "", false},
		{"readme.txt", "", "", false},
		{"AboutUs.json", "abouts", "json", true},
	}
	for _, tt := range tests {
		collection, format, ok := parseDumpEntry(tt.name)
		if collection != tt.wantCollection || format != tt.wantFormat || ok != tt.wantOK {
			t.Errorf("parseDumpEntry(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.name, collection, format, ok, tt.wantCollection, tt.wantFormat, tt.wantOK)
		}
	}
}

func TestDecodeBSONStream(t *testing.T) {
	doc1, err := bson.Marshal(bson.M{"name": "Sunshine Room"})
	if err != nil {
		t.Fatal(err)
	}
	doc2, err := bson.Marshal(bson.M{"name": "Rainbow Room"})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := decodeBSONStream(append(doc1, doc2...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1]["name"] != "Rainbow Room" {
		t.Errorf("rows[1][name] = %v", rows[1]["name"])
	}

	if _, err := decodeBSONStream(doc1[:len(doc1)-2]); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestDecodeJSONRows(t *testing.T) {
	array, err := decodeJSONRows([]byte(`[{"a":1},{"a":2}]`))
	if err != nil || len(array) != 2 {
		t.Fatalf("array decode: rows=%d err=%v", len(array), err)
	}

	ndjson, err := decodeJSONRows([]byte("{\"a\":1}\n\n{\"a\":2}\n"))
	if err != nil || len(ndjson) != 2 {
		t.Fatalf("ndjson decode: rows=%d err=%v", len(ndjson), err)
	}

	empty, err := decodeJSONRows([]byte("  \n"))
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty decode: rows=%d err=%v", len(empty), err)
	}
}

func TestConvertChildKeepsObjectIDHex(t *testing.T) {
	oid := primitive.NewObjectID()
	parent := primitive.NewObjectID()
	created := time.Date(2023, 5, 10, 8, 0, 0, 0, time.UTC)

	model := convertRow("children", map[string]interface{}{
		"_id":         oid,
		"parentId":    parent,
		"firstName":   "Mina",
		"lastName":    "Koch",
		"dateOfBirth": "2021-03-14T00:00:00Z",
		"status":      "active",
		"createdAt":   primitive.NewDateTimeFromTime(created),
	})
	child, ok := model.(*models.ChildModel)
	if !ok {
		t.Fatalf("got %T, want *models.ChildModel", model)
	}
	if child.ID != oid.Hex() {
		t.Errorf("ID = %q, want %q", child.ID, oid.Hex())
	}
	if child.ParentID != parent.Hex() {
		t.Errorf("ParentID = %q, want %q", child.ParentID, parent.Hex())
	}
	if child.DateOfBirth != "2021-03-14" {
		t.Errorf("DateOfBirth = %q", child.DateOfBirth)
	}
	if !child.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", child.CreatedAt, created)
	}
}

func TestConvertRowExtendedJSONIDs(t *testing.T) {
	model := convertRow("schools", map[string]interface{}{
		"_id":  map[string]interface{}{"$oid": "64a1fc0000000000000000ab"},
		"name": "Little Nest Downtown",
	})
	school, ok := model.(*models.SchoolModel)
	if !ok {
		t.Fatalf("got %T, want *models.SchoolModel", model)
	}
	if school.ID != "64a1fc0000000000000000ab" {
		t.Errorf("ID = %q", school.ID)
	}
}

func TestConvertRowDefaultsAndSkips(t *testing.T) {
	if convertRow("users", map[string]interface{}{"username": "x"}) != nil {
		t.Error("row without _id must be skipped")
	}
	if convertRow("posts", map[string]interface{}{"_id": "p1", "childId": "c1"}) != nil {
		t.Error("post without title must be skipped")
	}

	model := convertRow("users", map[string]interface{}{
		"_id":      "u1",
		"username": "jdoe",
		"role":     "superuser",
		"status":   "unknown",
	})
	user, ok := model.(*models.UserModel)
	if !ok {
		t.Fatalf("got %T, want *models.UserModel", model)
	}
	if user.Role != models.RoleParent {
		t.Errorf("unknown role mapped to %q, want parent", user.Role)
	}
	if user.Status != models.StatusActive {
		t.Errorf("unknown status mapped to %q, want active", user.Status)
	}
	if user.Password != "!imported" {
		t.Errorf("missing password mapped to %q", user.Password)
	}
}

func TestConvertPostEmbeds(t *testing.T) {
	model := convertRow("posts", map[string]interface{}{
		"_id":     "p1",
		"childId": "c1",
		"title":   "Block tower",
		"type":    "milestone",
		"media": primitive.A{
			primitive.M{"type": "image", "url": "https://cdn.example.com/a.png"},
		},
		"tags": primitive.A{"motor-skills"},
	})
	post, ok := model.(*models.PostModel)
	if !ok {
		t.Fatalf("got %T, want *models.PostModel", model)
	}
	if post.PostType != models.PostTypeMilestone {
		t.Errorf("PostType = %q", post.PostType)
	}
	if len(post.Media) != 1 || post.Media[0].URL != "https://cdn.example.com/a.png" {
		t.Errorf("Media = %+v", post.Media)
	}
	if len(post.Tags) != 1 || post.Tags[0] != "motor-skills" {
		t.Errorf("Tags = %+v", post.Tags)
	}
	if post.Visibility != models.VisibilityParentsOnly {
		t.Errorf("Visibility = %q", post.Visibility)
	}
}
