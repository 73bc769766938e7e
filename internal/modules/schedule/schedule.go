package schedule

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	"github.com/littlenest/core/internal/pkg/response"
)

type CreateScheduleDTO struct {
	RoomID     string                    `json:"roomId" binding:"required"`
	Date       string                    `json:"date"`
	Activities []models.ScheduleActivity `json:"activities" binding:"required,min=1"`
}

type CompleteActivityDTO struct {
	Notes string `json:"notes"`
}

// scheduleView adds completion stats for the today endpoint.
type scheduleView struct {
	models.ScheduleModel
	TotalActivities     int `json:"totalActivities"`
	CompletedActivities int `json:"completedActivities"`
}

func validCategory(c string) bool {
	for _, cat := range models.ScheduleCategories {
		if cat == c {
			return true
		}
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

func toView(s models.ScheduleModel) scheduleView {
	view := scheduleView{ScheduleModel: s, TotalActivities: len(s.Activities)}
	for _, a := range s.Activities {
		if a.IsCompleted {
			view.CompletedActivities++
		}
	}
	return view
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Upsert stores the room's schedule for the date; a second write for the
// same room+date replaces the activity list.
func (s *Service) Upsert(creatorID string, dto *CreateScheduleDTO) (*models.ScheduleModel, error) {
	date := normalizeDate(dto.Date)
	if date == "" {
		return nil, errors.New("invalid date, expected YYYY-MM-DD")
	}
	for i := range dto.Activities {
		if !validCategory(dto.Activities[i].Category) {
			return nil, errors.New("invalid activity category: " + dto.Activities[i].Category)
		}
	}

	var roomCount int64
	s.db.Model(&models.RoomModel{}).Where("id = ?", dto.RoomID).Count(&roomCount)
	if roomCount == 0 {
		return nil, errRoomNotFound
	}

	var schedule models.ScheduleModel
	err := s.db.Where("room_id = ? AND date = ?", dto.RoomID, date).First(&schedule).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	schedule.RoomID = dto.RoomID
	schedule.Date = date
	schedule.Activities = dto.Activities
	schedule.CreatedBy = creatorID
	schedule.IsActive = true
	return &schedule, s.db.Save(&schedule).Error
}

var errRoomNotFound = errors.New("room not found")

// Today returns the room's schedule for the current date with stats.
func (s *Service) Today(roomID string) (*scheduleView, error) {
	var schedule models.ScheduleModel
	err := s.db.Where("room_id = ? AND date = ? AND is_active = true", roomID, time.Now().Format("2006-01-02")).
		First(&schedule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	view := toView(schedule)
	return &view, nil
}

// CompleteActivity marks the activity at index done, with optional teacher
// notes.
func (s *Service) CompleteActivity(scheduleID string, index int, notes string) (*models.ScheduleModel, error) {
	var schedule models.ScheduleModel
	err := s.db.First(&schedule, "id = ?", scheduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(schedule.Activities) {
		return nil, errBadActivityIndex
	}

	now := time.Now()
	schedule.Activities[index].IsCompleted = true
	schedule.Activities[index].CompletedAt = &now
	if notes != "" {
		schedule.Activities[index].Notes = notes
	}
	return &schedule, s.db.Save(&schedule).Error
}

var errBadActivityIndex = errors.New("activity index out of range")

// Templates returns ready-made schedules per age group.
func Templates() map[string][]models.ScheduleActivity {
	return map[string][]models.ScheduleActivity{
		"infant": {
			{Time: "08:00 AM", Category: "Sensory Bin", Title: "Texture exploration", Duration: 20},
			{Time: "09:00 AM", Category: "Music And Movement", Title: "Lap songs and rhymes", Duration: 15},
			{Time: "10:00 AM", Category: "Fine Motor Skills", Title: "Grasp and release play", Duration: 15},
		},
		"toddler": {
			{Time: "08:30 AM", Category: "Creative Art", Title: "Finger painting", Duration: 30},
			{Time: "09:30 AM", Category: "Language And Literacy", Title: "Picture book circle", Duration: 20},
			{Time: "10:30 AM", Category: "Physical Development", Title: "Obstacle crawl", Duration: 25},
			{Time: "11:30 AM", Category: "Music And Movement", Title: "Dance and freeze", Duration: 20},
		},
		"preschool": {
			{Time: "08:30 AM", Category: "Language And Literacy", Title: "Morning journal drawing", Duration: 25},
			{Time: "09:30 AM", Category: "Science, Nature And Math", Title: "Counting nature walk", Duration: 40},
			{Time: "10:30 AM", Category: "Loose Part", Title: "Open build invitation", Duration: 30},
			{Time: "11:30 AM", Category: "Social Skills", Title: "Sharing circle", Duration: 20},
			{Time: "01:00 PM", Category: "Creative Art", Title: "Collage studio", Duration: 35},
		},
	}
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	staff := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)

	g := rg.Group("/schedule")
	g.GET("/today", middleware.Auth(), h.today)
	g.GET("/templates", staff, h.templates)
	g.POST("", staff, h.create)
	g.PUT("/:scheduleId/activities/:index/complete", middleware.RequireRole(models.RoleTeacher), h.completeActivity)
}

func (h *Handler) today(c *gin.Context) {
	roomID := c.Query("roomId")
	if roomID == "" {
		response.BadRequest(c, "roomId is required")
		return
	}
	view, err := h.svc.Today(roomID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if view == nil {
		response.NotFoundMsg(c, "no schedule for today")
		return
	}
	response.OK(c, view)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateScheduleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	schedule, err := h.svc.Upsert(middleware.CurrentUserID(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errRoomNotFound):
			response.NotFoundMsg(c, err.Error())
		case strings.HasPrefix(err.Error(), "invalid"):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, schedule)
}

func (h *Handler) completeActivity(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "invalid activity index")
		return
	}

	// Body is optional; notes default to empty.
	var dto CompleteActivityDTO
	_ = c.ShouldBindJSON(&dto)

	schedule, err := h.svc.CompleteActivity(c.Param("scheduleId"), index, dto.Notes)
	if err != nil {
		if errors.Is(err, errBadActivityIndex) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if schedule == nil {
		response.NotFoundMsg(c, "schedule not found")
		return
	}
	response.OK(c, schedule)
}

func (h *Handler) templates(c *gin.Context) {
	response.OK(c, gin.H{
		"categories": models.ScheduleCategories,
		"templates":  Templates(),
	})
}
