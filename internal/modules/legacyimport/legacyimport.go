package legacyimport

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	"github.com/littlenest/core/internal/pkg/response"
)

// maxArchiveBytes caps the uploaded dump archive.
const maxArchiveBytes = 200 << 20

// importOrder is FK-safe: referenced collections come first.
var importOrder = []string{
	"schools",
	"users",
	"rooms",
	"children",
	"dailyreports",
	"progressreports",
	"posts",
	"schedules",
	"faqs",
	"abouts",
}

// collectionAliases maps dump entry names from the legacy database onto
// the canonical collection names in importOrder.
var collectionAliases = map[string]string{
	"classrooms":     "rooms",
	"daily_reports":  "dailyreports",
	"dailyschedules": "schedules",
	"schedule":       "schedules",
	"aboutus":        "abouts",
	"about":          "abouts",
	"faq":            "faqs",
	"parents":        "users",
}

var collectionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(importOrder))
	for _, c := range importOrder {
		set[c] = struct{}{}
	}
	return set
}()

type dumpEntry struct {
	file   *zip.File
	format string
}

// CollectionResult reports the outcome for one collection.
type CollectionResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type Summary struct {
	Collections map[string]CollectionResult `json:"collections"`
	Duration    string                      `json:"duration"`
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Import reads a mongodump-style ZIP archive and loads its collections
// into the relational schema. Legacy ObjectID hex strings become row IDs
// verbatim so cross-references survive the move. The whole import runs
// in one transaction.
func (s *Service) Import(data []byte) (*Summary, error) {
	start := time.Now()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip archive: %w", err)
	}

	entries := make(map[string]dumpEntry)
	for _, file := range zr.File {
		collection, format, ok := parseDumpEntry(file.Name)
		if !ok {
			continue
		}
		exist, has := entries[collection]
		if !has || (exist.format != "bson" && format == "bson") {
			entries[collection] = dumpEntry{file: file, format: format}
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("archive contains no recognized collections")
	}

	summary := &Summary{Collections: make(map[string]CollectionResult, len(entries))}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	shouldRollback := true
	defer func() {
		if shouldRollback {
			_ = tx.Rollback().Error
		}
	}()

	fkCheckDisabled := false
	if strings.EqualFold(tx.Dialector.Name(), "mysql") {
		if err := tx.Exec("SET FOREIGN_KEY_CHECKS = 0").Error; err != nil {
			return nil, err
		}
		fkCheckDisabled = true
		defer func() {
			if fkCheckDisabled {
				_ = tx.Exec("SET FOREIGN_KEY_CHECKS = 1").Error
			}
		}()
	}

	for _, collection := range importOrder {
		entry, ok := entries[collection]
		if !ok {
			continue
		}
		rows, err := decodeDumpRows(entry.file, entry.format)
		if err != nil {
			return nil, fmt.Errorf("decode %s failed: %w", collection, err)
		}

		result := CollectionResult{}
		for _, row := range rows {
			model := convertRow(collection, row)
			if model == nil {
				result.Skipped++
				continue
			}
			if err := tx.Create(model).Error; err != nil {
				if isDuplicateError(err) {
					result.Skipped++
					continue
				}
				return nil, fmt.Errorf("insert into %s failed: %w", collection, err)
			}
			result.Imported++
		}
		summary.Collections[collection] = result
		s.logger.Info("collection imported",
			zap.String("collection", collection),
			zap.Int("imported", result.Imported),
			zap.Int("skipped", result.Skipped))
	}

	if fkCheckDisabled {
		if err := tx.Exec("SET FOREIGN_KEY_CHECKS = 1").Error; err != nil {
			return nil, err
		}
		fkCheckDisabled = false
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	shouldRollback = false

	summary.Duration = time.Since(start).Round(time.Millisecond).String()
	return summary, nil
}

// parseDumpEntry recognizes mongodump layouts: <db>/<collection>.bson
// plus sidecar <collection>.metadata.json files, and plain JSON exports.
func parseDumpEntry(name string) (collection string, format string, ok bool) {
	base := strings.ToLower(strings.TrimSpace(path.Base(name)))
	if base == "" || strings.HasSuffix(base, ".metadata.json") {
		return "", "", false
	}
	if base == "prelude.json" || base == "manifest.json" {
		return "", "", false
	}

	switch {
	case strings.HasSuffix(base, ".bson"):
		collection, format = strings.TrimSuffix(base, ".bson"), "bson"
	case strings.HasSuffix(base, ".json"):
		collection, format = strings.TrimSuffix(base, ".json"), "json"
	default:
		return "", "", false
	}
	if mapped, has := collectionAliases[collection]; has {
		collection = mapped
	}
	if _, has := collectionSet[collection]; !has {
		return "", "", false
	}
	return collection, format, true
}

func decodeDumpRows(file *zip.File, format string) ([]map[string]interface{}, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	switch format {
	case "bson":
		return decodeBSONStream(data)
	case "json":
		return decodeJSONRows(data)
	default:
		return nil, fmt.Errorf("unsupported dump format: %s", format)
	}
}

// decodeBSONStream splits a mongodump .bson file into documents. Each
// document is length-prefixed, little endian.
func decodeBSONStream(payload []byte) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0)
	cursor := 0
	for cursor < len(payload) {
		if cursor+4 > len(payload) {
			return nil, fmt.Errorf("truncated bson payload")
		}
		docLen := int(int32(binary.LittleEndian.Uint32(payload[cursor : cursor+4])))
		if docLen <= 0 || cursor+docLen > len(payload) {
			return nil, fmt.Errorf("invalid bson document length")
		}
		var row map[string]interface{}
		if err := bson.Unmarshal(payload[cursor:cursor+docLen], &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
		cursor += docLen
	}
	return rows, nil
}

// decodeJSONRows accepts either a JSON array or newline-delimited JSON,
// the two shapes mongoexport produces.
func decodeJSONRows(data []byte) ([]map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []map[string]interface{}{}, nil
	}
	if trimmed[0] == '[' {
		var rows []map[string]interface{}
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	rows := make([]map[string]interface{}, 0)
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var row map[string]interface{}
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/import", middleware.RequireRole(models.RoleAdmin))
	g.POST("/legacy", h.importLegacy)
}

func (h *Handler) importLegacy(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if header.Size > maxArchiveBytes {
		response.BadRequest(c, "archive too large")
		return
	}

	f, err := header.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxArchiveBytes+1))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if len(data) > maxArchiveBytes {
		response.BadRequest(c, "archive too large")
		return
	}

	summary, err := h.svc.Import(data)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, summary)
}

// strOf returns the first non-empty string value among the given keys.
func strOf(row map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key]; ok {
			if s := stringValue(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case primitive.ObjectID:
		return t.Hex()
	case map[string]interface{}:
		// extended JSON: {"$oid": "..."}
		if oid, ok := t["$oid"].(string); ok {
			return strings.TrimSpace(oid)
		}
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	}
	return ""
}

func boolOf(row map[string]interface{}, keys ...string) bool {
	for _, key := range keys {
		if v, ok := row[key].(bool); ok {
			return v
		}
	}
	return false
}

func timeOf(row map[string]interface{}, keys ...string) *time.Time {
	for _, key := range keys {
		v, ok := row[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return &t
		case primitive.DateTime:
			parsed := t.Time()
			return &parsed
		case string:
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return &parsed
			}
		case map[string]interface{}:
			if raw, ok := t["$date"].(string); ok {
				if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
					return &parsed
				}
			}
		}
	}
	return nil
}

// dateOf returns a YYYY-MM-DD string from either a stored date string or
// a timestamp value.
func dateOf(row map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := row[key].(string); ok {
			s = strings.TrimSpace(s)
			if len(s) >= 10 {
				if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
					return s[:10]
				}
			}
		}
	}
	if ts := timeOf(row, keys...); ts != nil {
		return ts.Format("2006-01-02")
	}
	return ""
}

// embedInto converts a decoded BSON/JSON value into a typed embedded
// struct by round-tripping through JSON with BSON types flattened.
func embedInto(v interface{}, target interface{}) {
	if v == nil {
		return
	}
	raw, err := json.Marshal(flattenBSON(v))
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, target)
}

func flattenBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().Format(time.RFC3339)
	case primitive.A:
		out := make([]interface{}, 0, len(t))
		for _, item := range t {
			out = append(out, flattenBSON(item))
		}
		return out
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, elem := range t {
			out[elem.Key] = flattenBSON(elem.Value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(t))
		for _, item := range t {
			out = append(out, flattenBSON(item))
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for key, item := range t {
			out[key] = flattenBSON(item)
		}
		return out
	case primitive.M:
		out := make(map[string]interface{}, len(t))
		for key, item := range t {
			out[key] = flattenBSON(item)
		}
		return out
	default:
		return v
	}
}

// convertRow maps one legacy document onto a model. A nil return means
// the row lacks required fields and is skipped.
func convertRow(collection string, row map[string]interface{}) interface{} {
	id := strOf(row, "_id", "id")
	if id == "" {
		return nil
	}
	base := models.Base{ID: id}
	if created := timeOf(row, "createdAt", "created_at", "created"); created != nil {
		base.CreatedAt = *created
	}
	if updated := timeOf(row, "updatedAt", "updated_at", "modified"); updated != nil {
		base.UpdatedAt = *updated
	}

	switch collection {
	case "schools":
		name := strOf(row, "name", "schoolName")
		if name == "" {
			return nil
		}
		return &models.SchoolModel{
			Base:    base,
			Name:    name,
			Address: strOf(row, "address"),
			Phone:   strOf(row, "phone", "phoneNumber"),
			Email:   strOf(row, "email"),
			AdminID: strOf(row, "adminId", "admin"),
		}
	case "users":
		username := strOf(row, "username", "userName", "email")
		if username == "" {
			return nil
		}
		role := strings.ToLower(strOf(row, "role"))
		if role != models.RoleAdmin && role != models.RoleTeacher {
			role = models.RoleParent
		}
		status := strings.ToLower(strOf(row, "status"))
		if status != models.StatusInactive && status != models.StatusPending {
			status = models.StatusActive
		}
		user := &models.UserModel{
			Base:     base,
			Username: username,
			Email:    strOf(row, "email"),
			Name:     strOf(row, "name", "fullName"),
			Password: strOf(row, "password"),
			Role:     role,
			Status:   status,
			Avatar:   strOf(row, "avatar", "profilePicture"),
			Phone:    strOf(row, "phone", "phoneNumber"),
			SchoolID: strOf(row, "schoolId", "school"),
		}
		if user.Password == "" {
			// unusable sentinel, forces a password reset
			user.Password = "!imported"
		}
		return user
	case "rooms":
		name := strOf(row, "name", "roomName")
		if name == "" {
			return nil
		}
		return &models.RoomModel{
			Base:      base,
			SchoolID:  strOf(row, "schoolId", "school"),
			Name:      name,
			AgeGroup:  strOf(row, "ageGroup"),
			TeacherID: strOf(row, "teacherId", "teacher", "assignedTeacher"),
		}
	case "children":
		firstName := strOf(row, "firstName", "first_name", "name")
		if firstName == "" {
			return nil
		}
		status := strings.ToLower(strOf(row, "status"))
		if status != models.StatusActive && status != models.StatusInactive {
			status = models.StatusPending
		}
		return &models.ChildModel{
			Base:        base,
			SchoolID:    strOf(row, "schoolId", "school"),
			ParentID:    strOf(row, "parentId", "parent"),
			RoomID:      strOf(row, "roomId", "room", "assignedRoom"),
			FirstName:   firstName,
			LastName:    strOf(row, "lastName", "last_name"),
			DateOfBirth: dateOf(row, "dateOfBirth", "dob"),
			Gender:      strOf(row, "gender"),
			Photo:       strOf(row, "photo", "profilePicture"),
			Status:      status,
			Allergies:   strOf(row, "allergies"),
			Notes:       strOf(row, "notes"),
		}
	case "dailyreports":
		childID := strOf(row, "childId", "child")
		date := dateOf(row, "date", "reportDate", "createdAt")
		if childID == "" || date == "" {
			return nil
		}
		report := &models.DailyReportModel{
			Base:      base,
			ChildID:   childID,
			RoomID:    strOf(row, "roomId", "room"),
			TeacherID: strOf(row, "teacherId", "teacher"),
			Date:      date,
		}
		embedInto(row["checkIn"], &report.CheckIn)
		embedInto(row["checkOut"], &report.CheckOut)
		embedInto(row["temperature"], &report.Temperature)
		report.Activities = strOf(row, "activities")
		report.Health = strOf(row, "health")
		report.Mood = strOf(row, "mood")
		report.Supplies = strOf(row, "supplies")
		report.Naps = strOf(row, "naps")
		report.Notes = strOf(row, "notes")
		report.NameToFace = strOf(row, "nameToFace")
		report.MoveRooms = strOf(row, "moveRooms")
		report.IsSubmitted = boolOf(row, "isSubmitted", "submitted")
		return report
	case "progressreports":
		childID := strOf(row, "childId", "child")
		date := dateOf(row, "reportDate", "date", "createdAt")
		if childID == "" || date == "" {
			return nil
		}
		reportType := strings.ToLower(strOf(row, "reportType"))
		if reportType == "" {
			reportType = models.ReportTypeDaily
		}
		report := &models.ProgressReportModel{
			Base:         base,
			ChildID:      childID,
			ParentID:     strOf(row, "parentId", "parent"),
			TeacherID:    strOf(row, "teacherId", "teacher"),
			RoomID:       strOf(row, "roomId", "room"),
			ReportDate:   date,
			ReportType:   reportType,
			TeacherNotes: strOf(row, "teacherNotes"),
			ParentNotes:  strOf(row, "parentNotes"),
			IsCompleted:  boolOf(row, "isCompleted"),
			ParentViewed: boolOf(row, "parentViewed"),
		}
		report.ParentViewedAt = timeOf(row, "parentViewedAt")
		embedInto(row["meals"], &report.Meals)
		embedInto(row["mood"], &report.Mood)
		embedInto(row["activities"], &report.Activities)
		embedInto(row["observations"], &report.Observations)
		embedInto(row["sleepSessions"], &report.SleepSessions)
		embedInto(row["diaperChanges"], &report.DiaperChanges)
		embedInto(row["attendance"], &report.Attendance)
		embedInto(row["photos"], &report.Photos)
		return report
	case "posts":
		childID := strOf(row, "childId", "child")
		title := strOf(row, "title")
		if childID == "" || title == "" {
			return nil
		}
		postType := strings.ToLower(strOf(row, "postType", "type"))
		switch postType {
		case models.PostTypeObservation, models.PostTypeMilestone, models.PostTypeGeneral:
		default:
			postType = models.PostTypeActivity
		}
		visibility := strings.ToLower(strOf(row, "visibility"))
		switch visibility {
		case models.VisibilityPublic, models.VisibilityTeachersOnly:
		default:
			visibility = models.VisibilityParentsOnly
		}
		post := &models.PostModel{
			Base:        base,
			ChildID:     childID,
			TeacherID:   strOf(row, "teacherId", "teacher", "author"),
			RoomID:      strOf(row, "roomId", "room"),
			PostType:    postType,
			Title:       title,
			Description: strOf(row, "description", "content"),
			Visibility:  visibility,
			IsArchived:  boolOf(row, "isArchived", "archived"),
		}
		embedInto(row["activityDetails"], &post.ActivityDetails)
		embedInto(row["media"], &post.Media)
		embedInto(row["tags"], &post.Tags)
		return post
	case "schedules":
		roomID := strOf(row, "roomId", "room")
		date := dateOf(row, "date", "createdAt")
		if roomID == "" || date == "" {
			return nil
		}
		schedule := &models.ScheduleModel{
			Base:      base,
			RoomID:    roomID,
			Date:      date,
			CreatedBy: strOf(row, "createdBy", "teacherId"),
			IsActive:  true,
		}
		embedInto(row["activities"], &schedule.Activities)
		return schedule
	case "faqs":
		question := strOf(row, "question")
		if question == "" {
			return nil
		}
		return &models.FaqModel{
			Base:      base,
			Question:  question,
			Answer:    strOf(row, "answer"),
			CreatedBy: strOf(row, "createdBy"),
		}
	case "abouts":
		title := strOf(row, "title")
		if title == "" {
			return nil
		}
		return &models.AboutModel{
			Base:      base,
			Title:     title,
			Content:   strOf(row, "content", "description"),
			CreatedBy: strOf(row, "createdBy"),
		}
	}
	return nil
}
