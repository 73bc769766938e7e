package dailyreport

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	"github.com/littlenest/core/internal/pkg/response"
)

type TimeDTO struct {
	ReportID string `json:"reportId" binding:"required"`
	Time     string `json:"time"     binding:"required"`
}

type TextSectionDTO struct {
	ReportID string `json:"reportId" binding:"required"`
	Value    string `json:"value"    binding:"required"`
	Time     string `json:"time"`
}

type HealthDTO struct {
	ReportID    string `json:"reportId" binding:"required"`
	Health      string `json:"health"   binding:"required"`
	CustomField string `json:"customField"`
	Time        string `json:"time"`
}

type TemperatureDTO struct {
	ReportID string   `json:"reportId" binding:"required"`
	Value    *float64 `json:"value"    binding:"required"`
	Unit     string   `json:"unit"     binding:"required,oneof=C F"`
	Time     string   `json:"time"`
}

type MoodDTO struct {
	ReportID string `json:"reportId" binding:"required"`
	Mood     string `json:"mood"     binding:"required"`
	Time     string `json:"time"`
}

type SubmitDTO struct {
	ReportID string `json:"reportId" binding:"required"`
}

func validMood(m string) bool {
	for _, mood := range models.DailyReportMoods {
		if mood == m {
			return true
		}
	}
	return false
}

func today() string { return time.Now().Format("2006-01-02") }

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// GetOrCreate returns today's report for the child, creating an empty one on
// first access. The room must belong to the requesting teacher.
func (s *Service) GetOrCreate(teacherID, childID, roomID string) (*models.DailyReportModel, error) {
	var childCount int64
	s.db.Model(&models.ChildModel{}).Where("id = ?", childID).Count(&childCount)
	if childCount == 0 {
		return nil, errChildNotFound
	}

	var roomCount int64
	s.db.Model(&models.RoomModel{}).Where("id = ? AND teacher_id = ?", roomID, teacherID).Count(&roomCount)
	if roomCount == 0 {
		return nil, errRoomNotAssigned
	}

	date := today()
	var report models.DailyReportModel
	err := s.db.Where("child_id = ? AND room_id = ? AND date = ?", childID, roomID, date).First(&report).Error
	if err == nil {
		return &report, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	report = models.DailyReportModel{
		ChildID:   childID,
		RoomID:    roomID,
		TeacherID: teacherID,
		Date:      date,
	}
	return &report, s.db.Create(&report).Error
}

var (
	errChildNotFound   = errors.New("child not found")
	errRoomNotAssigned = errors.New("room not found or not assigned to you")
	errReportNotFound  = errors.New("report not found")
)

// ownedReport loads a report only if the teacher authored it.
func (s *Service) ownedReport(teacherID, reportID string) (*models.DailyReportModel, error) {
	var report models.DailyReportModel
	err := s.db.Where("id = ? AND teacher_id = ?", reportID, teacherID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateSection loads the teacher's report, applies the mutation and saves.
func (s *Service) UpdateSection(teacherID, reportID string, apply func(*models.DailyReportModel)) (*models.DailyReportModel, error) {
	report, err := s.ownedReport(teacherID, reportID)
	if err != nil {
		return nil, err
	}
	apply(report)
	return report, s.db.Save(report).Error
}

func (s *Service) Submit(teacherID, reportID string) (*models.DailyReportModel, error) {
	return s.UpdateSection(teacherID, reportID, func(r *models.DailyReportModel) {
		r.IsSubmitted = true
	})
}

// ChildHistory lists all of a teacher's reports for one child, newest first.
func (s *Service) ChildHistory(teacherID, childID string) ([]models.DailyReportModel, error) {
	var reports []models.DailyReportModel
	err := s.db.Where("child_id = ? AND teacher_id = ?", childID, teacherID).
		Order("date DESC").Find(&reports).Error
	return reports, err
}

// TodayForParent returns today's reports for the parent's own child.
func (s *Service) TodayForParent(parentID, childID string) ([]models.DailyReportModel, error) {
	var child models.ChildModel
	err := s.db.First(&child, "id = ?", childID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errChildNotFound
	}
	if err != nil {
		return nil, err
	}
	if child.ParentID != parentID {
		return nil, errNotYourChild
	}

	var reports []models.DailyReportModel
	err = s.db.Where("child_id = ? AND date = ?", childID, today()).
		Order("created_at DESC").Find(&reports).Error
	return reports, err
}

var errNotYourChild = errors.New("child does not belong to you")

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	teacher := middleware.RequireRole(models.RoleTeacher)

	g := rg.Group("/daily-reports")
	g.GET("/report", teacher, h.getOrCreate)
	g.POST("/check-in", teacher, h.checkIn)
	g.POST("/check-out", teacher, h.checkOut)
	g.POST("/activities", teacher, h.textSection("activities"))
	g.POST("/health", teacher, h.health)
	g.POST("/temperature", teacher, h.temperature)
	g.POST("/mood", teacher, h.mood)
	g.POST("/supplies", teacher, h.textSection("supplies"))
	g.POST("/naps", teacher, h.textSection("naps"))
	g.POST("/notes", teacher, h.textSection("notes"))
	g.POST("/name-to-face", teacher, h.textSection("name-to-face"))
	g.POST("/move-rooms", teacher, h.textSection("move-rooms"))
	g.POST("/submit", teacher, h.submit)
	g.GET("/child-reports", teacher, h.childHistory)
	g.GET("/parent/today", middleware.RequireRole(models.RoleParent), h.todayForParent)
}

func (h *Handler) respondUpdated(c *gin.Context, report *models.DailyReportModel, err error) {
	if err != nil {
		if errors.Is(err, errReportNotFound) {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, report)
}

func (h *Handler) getOrCreate(c *gin.Context) {
	childID := c.Query("childId")
	roomID := c.Query("roomId")
	if childID == "" || roomID == "" {
		response.BadRequest(c, "childId and roomId are required")
		return
	}

	report, err := h.svc.GetOrCreate(middleware.CurrentUserID(c), childID, roomID)
	if err != nil {
		switch {
		case errors.Is(err, errChildNotFound), errors.Is(err, errRoomNotAssigned):
			response.NotFoundMsg(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, report)
}

func (h *Handler) checkIn(c *gin.Context) {
	var dto TimeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	report, err := h.svc.UpdateSection(middleware.CurrentUserID(c), dto.ReportID, func(r *models.DailyReportModel) {
		r.CheckIn = models.CheckEvent{Time: dto.Time, Status: true}
	})
	h.respondUpdated(c, report, err)
}

func (h *Handler) checkOut(c *gin.Context) {
	var dto TimeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	report, err := h.svc.UpdateSection(middleware.CurrentUserID(c), dto.ReportID, func(r *models.DailyReportModel) {
		r.CheckOut = models.CheckEvent{Time: dto.Time, Status: true}
	})
	h.respondUpdated(c, report, err)
}

// textSection builds a handler for the free-text sections that share the
// value+time shape.
func (h *Handler) textSection(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var dto TextSectionDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		report, err := h.svc.UpdateSection(middleware.CurrentUserID(c), dto.ReportID, func(r *models.DailyReportModel) {
			switch section {
			case "activities":
				r.Activities, r.ActivitiesTime = dto.Value, dto.Time
			case "supplies":
				r.Supplies, r.SuppliesTime = dto.Value, dto.Time
			case "naps":
				r.Naps, r.NapsTime = dto.Value, dto.Time
			case "notes":
				r.Notes, r.NotesTime = dto.Value, dto.Time
			case "name-to-face":
				r.NameToFace, r.NameToFaceTime = dto.Value, dto.Time
			case "move-rooms":
				r.MoveRooms, r.MoveRoomsTime = dto.Value, dto.Time
			}
		})
		h.respondUpdated(c, report, err)
	}
}

func (h *Handler) health(c *gin.Context) {
	var dto HealthDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	report, err := h.svc.UpdateSection(middleware.CurrentUserID(c), dto.ReportID, func(r *models.DailyReportModel) {
		r.Health = dto.Health
		r.HealthCustomField = dto.CustomField
		r.HealthTime = dto.Time
	})
	h.respondUpdated(c, report, err)
}

func (h *Handler) temperature(c *gin.Context) {
	var dto TemperatureDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	report, err := h.svc.UpdateSection(middleware.CurrentUserID(c), dto.ReportID, func(r *models.DailyReportModel) {
		r.Temperature = models.Temperature{Value: dto.Value, Unit: dto.Unit}
		r.TemperatureTime = dto.Time
	})
	h.respondUpdated(c, report, err)
}

func (h *Handler) mood(c *gin.Context) {
	var dto MoodDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !validMood(dto.Mood) {
		response.BadRequest(c, "invalid mood")
		return
	}
	report, err := h.svc.UpdateSection(middleware.CurrentUserID(c), dto.ReportID, func(r *models.DailyReportModel) {
		r.Mood = dto.Mood
		r.MoodTime = dto.Time
	})
	h.respondUpdated(c, report, err)
}

func (h *Handler) submit(c *gin.Context) {
	var dto SubmitDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	report, err := h.svc.Submit(middleware.CurrentUserID(c), dto.ReportID)
	h.respondUpdated(c, report, err)
}

func (h *Handler) childHistory(c *gin.Context) {
	childID := c.Query("childId")
	if childID == "" {
		response.BadRequest(c, "childId is required")
		return
	}
	reports, err := h.svc.ChildHistory(middleware.CurrentUserID(c), childID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, reports)
}

func (h *Handler) todayForParent(c *gin.Context) {
	childID := c.Query("childId")
	if childID == "" {
		response.BadRequest(c, "childId is required")
		return
	}
	reports, err := h.svc.TodayForParent(middleware.CurrentUserID(c), childID)
	if err != nil {
		switch {
		case errors.Is(err, errChildNotFound):
			response.NotFoundMsg(c, err.Error())
		case errors.Is(err, errNotYourChild):
			response.ForbiddenMsg(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, reports)
}
