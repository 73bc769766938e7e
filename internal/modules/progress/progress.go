package progress

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	"github.com/littlenest/core/internal/pkg/pagination"
	"github.com/littlenest/core/internal/pkg/response"
)

type CreateReportDTO struct {
	RoomID        string                    `json:"roomId"`
	ReportDate    string                    `json:"reportDate"`
	ReportType    string                    `json:"reportType"`
	Meals         []models.Meal             `json:"meals"`
	Mood          models.MoodSummary        `json:"mood"`
	Activities    []models.ProgressActivity `json:"activities"`
	Observations  []models.Observation      `json:"observations"`
	SleepSessions []models.SleepSession     `json:"sleepSessions"`
	DiaperChanges []models.DiaperChange     `json:"diaperChanges"`
	Attendance    models.Attendance         `json:"attendance"`
	Photos        []models.ProgressPhoto    `json:"photos"`
	TeacherNotes  string                    `json:"teacherNotes"`
	IsCompleted   bool                      `json:"isCompleted"`
}

type ParentNoteDTO struct {
	Note string `json:"note" binding:"required"`
}

var (
	errChildNotFound = errors.New("child not found")
	errAccessDenied  = errors.New("access denied to this child's report")
)

func validReportType(t string) bool {
	switch t {
	case models.ReportTypeDaily, models.ReportTypeWeekly,
		models.ReportTypeMonthly, models.ReportTypeQuarterly:
		return true
	}
	return false
}

func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().Format("2006-01-02")
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format("2006-01-02")
	}
	return ""
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) child(childID string) (*models.ChildModel, error) {
	var child models.ChildModel
	err := s.db.First(&child, "id = ?", childID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errChildNotFound
	}
	return &child, err
}

// Upsert creates today's report for a child or replaces the section content
// of an existing one for the same date.
func (s *Service) Upsert(teacherID, childID string, dto *CreateReportDTO) (*models.ProgressReportModel, error) {
	child, err := s.child(childID)
	if err != nil {
		return nil, err
	}

	date := normalizeDate(dto.ReportDate)
	if date == "" {
		return nil, errors.New("invalid report date, expected YYYY-MM-DD")
	}
	reportType := dto.ReportType
	if reportType == "" {
		reportType = models.ReportTypeDaily
	}
	if !validReportType(reportType) {
		return nil, errors.New("invalid report type")
	}

	var report models.ProgressReportModel
	err = s.db.Where("child_id = ? AND report_date = ?", childID, date).First(&report).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	report.ChildID = childID
	report.ParentID = child.ParentID
	report.TeacherID = teacherID
	report.RoomID = dto.RoomID
	report.ReportDate = date
	report.ReportType = reportType
	report.Meals = dto.Meals
	report.Mood = dto.Mood
	report.Activities = dto.Activities
	report.Observations = dto.Observations
	report.SleepSessions = dto.SleepSessions
	report.DiaperChanges = dto.DiaperChanges
	report.Attendance = dto.Attendance
	report.Photos = dto.Photos
	report.TeacherNotes = dto.TeacherNotes
	report.IsCompleted = dto.IsCompleted

	return &report, s.db.Save(&report).Error
}

// Fetch returns the report for child+date. A parent fetching their own
// child's report marks it viewed.
func (s *Service) Fetch(viewerID, role, childID, date string) (*models.ProgressReportModel, error) {
	date = normalizeDate(date)
	if date == "" {
		return nil, errors.New("invalid report date, expected YYYY-MM-DD")
	}

	if role == models.RoleParent {
		child, err := s.child(childID)
		if err != nil {
			return nil, err
		}
		if child.ParentID != viewerID {
			return nil, errAccessDenied
		}
	}

	var report models.ProgressReportModel
	err := s.db.Where("child_id = ? AND report_date = ?", childID, date).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if role == models.RoleParent && !report.ParentViewed {
		now := time.Now()
		report.ParentViewed = true
		report.ParentViewedAt = &now
		if err := s.db.Model(&report).Updates(map[string]interface{}{
			"parent_viewed":    true,
			"parent_viewed_at": now,
		}).Error; err != nil {
			return nil, err
		}
	}
	return &report, nil
}

// availableItem is one row in the parent's report list.
type availableItem struct {
	ID           string `json:"id"`
	ChildID      string `json:"childId"`
	ReportDate   string `json:"reportDate"`
	ReportType   string `json:"reportType"`
	IsCompleted  bool   `json:"isCompleted"`
	ParentViewed bool   `json:"parentViewed"`
}

// Available lists a parent's reports, optionally narrowed to one child.
func (s *Service) Available(parentID, childID string, q pagination.Query) ([]availableItem, response.Pagination, error) {
	query := s.db.Model(&models.ProgressReportModel{}).Where("parent_id = ?", parentID)
	if childID != "" {
		query = query.Where("child_id = ?", childID)
	}

	var reports []models.ProgressReportModel
	meta, err := pagination.Paginate(query.Order("report_date DESC"), q, &reports)
	if err != nil {
		return nil, meta, err
	}

	items := make([]availableItem, 0, len(reports))
	for _, r := range reports {
		items = append(items, availableItem{
			ID: r.ID, ChildID: r.ChildID, ReportDate: r.ReportDate,
			ReportType: r.ReportType, IsCompleted: r.IsCompleted,
			ParentViewed: r.ParentViewed,
		})
	}
	return items, meta, nil
}

// AddParentNote appends the parent's response to their own child's report.
func (s *Service) AddParentNote(parentID, reportID, note string) (*models.ProgressReportModel, error) {
	var report models.ProgressReportModel
	err := s.db.Where("id = ? AND parent_id = ?", reportID, parentID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	note = strings.TrimSpace(note)
	if report.ParentNotes != "" {
		report.ParentNotes += "\n" + note
	} else {
		report.ParentNotes = note
	}
	return &report, s.db.Model(&report).Update("parent_notes", report.ParentNotes).Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/progress")

	// One wildcard name serves both the child and report routes; gin does
	// not allow differently named params in the same segment.
	g.GET("/reports", middleware.RequireRole(models.RoleParent), h.available)
	g.POST("/:id/parent-note", middleware.RequireRole(models.RoleParent), h.addParentNote)
	g.GET("/:id", middleware.Auth(), h.fetch)
	g.POST("/:id", middleware.RequireRole(models.RoleTeacher), h.upsert)
}

func (h *Handler) upsert(c *gin.Context) {
	var dto CreateReportDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	report, err := h.svc.Upsert(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errChildNotFound):
			response.NotFoundMsg(c, err.Error())
		case strings.HasPrefix(err.Error(), "invalid"):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, report)
}

func (h *Handler) fetch(c *gin.Context) {
	report, err := h.svc.Fetch(
		middleware.CurrentUserID(c), middleware.CurrentRole(c),
		c.Param("id"), c.Query("date"))
	if err != nil {
		switch {
		case errors.Is(err, errChildNotFound):
			response.NotFoundMsg(c, err.Error())
		case errors.Is(err, errAccessDenied):
			response.ForbiddenMsg(c, err.Error())
		case strings.HasPrefix(err.Error(), "invalid"):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	if report == nil {
		response.NotFoundMsg(c, "progress report not found for this date")
		return
	}
	response.OK(c, report)
}

func (h *Handler) available(c *gin.Context) {
	items, meta, err := h.svc.Available(middleware.CurrentUserID(c), c.Query("childId"), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, meta)
}

func (h *Handler) addParentNote(c *gin.Context) {
	var dto ParentNoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	report, err := h.svc.AddParentNote(middleware.CurrentUserID(c), c.Param("id"), dto.Note)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if report == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, report)
}
