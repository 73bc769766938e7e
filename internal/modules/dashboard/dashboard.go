package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	redisc "github.com/littlenest/core/internal/pkg/redis"
	"github.com/littlenest/core/internal/pkg/response"
)

// cacheTTL bounds how stale a parent dashboard can be. The dashboard is
// rebuilt from several tables, so hits within the window skip all of them.
const cacheTTL = 30 * time.Second

var errChildNotFound = errors.New("child not found")

type childSummary struct {
	models.ChildModel
	RoomName    string `json:"room_name"`
	TeacherName string `json:"teacher_name"`
}

type Overview struct {
	Children       []childSummary            `json:"children"`
	TodayReports   []models.DailyReportModel `json:"todayReports"`
	UnreadProgress int64                     `json:"unreadProgress"`
	RecentPosts    []models.PostModel        `json:"recentPosts"`
	GeneratedAt    time.Time                 `json:"generatedAt"`
}

type ChildDetails struct {
	Child          childSummary                `json:"child"`
	TodayReport    *models.DailyReportModel    `json:"todayReport"`
	LatestProgress *models.ProgressReportModel `json:"latestProgress"`
	RecentPosts    []models.PostModel          `json:"recentPosts"`
	AttendanceDays int64                       `json:"attendanceDays"`
}

type Service struct {
	db     *gorm.DB
	rc     *redisc.Client
	logger *zap.Logger
}

func NewService(db *gorm.DB, rc *redisc.Client, logger *zap.Logger) *Service {
	return &Service{db: db, rc: rc, logger: logger}
}

func overviewKey(parentID string) string { return fmt.Sprintf("ln:dashboard:%s", parentID) }

// Invalidate drops the cached overview for a parent. Called by writers
// that change what the dashboard shows.
func (s *Service) Invalidate(c *gin.Context, parentID string) {
	if s.rc == nil {
		return
	}
	if err := s.rc.Del(c.Request.Context(), overviewKey(parentID)); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}

func (s *Service) Overview(c *gin.Context, parentID string) (*Overview, error) {
	if s.rc != nil {
		if cached, err := s.rc.Get(c.Request.Context(), overviewKey(parentID)); err == nil && cached != "" {
			var ov Overview
			if json.Unmarshal([]byte(cached), &ov) == nil {
				return &ov, nil
			}
		}
	}

	ov, err := s.buildOverview(parentID)
	if err != nil {
		return nil, err
	}

	if s.rc != nil {
		if raw, err := json.Marshal(ov); err == nil {
			if err := s.rc.Set(c.Request.Context(), overviewKey(parentID), raw, cacheTTL); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return ov, nil
}

func (s *Service) buildOverview(parentID string) (*Overview, error) {
	children, err := s.childSummaries(parentID)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		Children:     children,
		TodayReports: []models.DailyReportModel{},
		RecentPosts:  []models.PostModel{},
		GeneratedAt:  time.Now(),
	}
	if len(children) == 0 {
		return ov, nil
	}

	childIDs := make([]string, 0, len(children))
	for _, ch := range children {
		childIDs = append(childIDs, ch.ID)
	}

	today := time.Now().Format("2006-01-02")
	if err := s.db.
		Where("child_id IN ? AND date = ?", childIDs, today).
		Find(&ov.TodayReports).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.ProgressReportModel{}).
		Where("parent_id = ? AND is_completed = ? AND parent_viewed = ?", parentID, true, false).
		Count(&ov.UnreadProgress).Error; err != nil {
		return nil, err
	}

	if err := s.db.
		Where("child_id IN ? AND is_archived = ? AND visibility IN ?",
			childIDs, false, []string{models.VisibilityPublic, models.VisibilityParentsOnly}).
		Order("created_at DESC").Limit(10).
		Find(&ov.RecentPosts).Error; err != nil {
		return nil, err
	}
	return ov, nil
}

func (s *Service) childSummaries(parentID string) ([]childSummary, error) {
	var children []models.ChildModel
	if err := s.db.Where("parent_id = ?", parentID).Order("first_name ASC").Find(&children).Error; err != nil {
		return nil, err
	}

	summaries := make([]childSummary, 0, len(children))
	for _, ch := range children {
		sum := childSummary{ChildModel: ch}
		if ch.RoomID != "" {
			var room models.RoomModel
			if err := s.db.First(&room, "id = ?", ch.RoomID).Error; err == nil {
				sum.RoomName = room.Name
				if room.TeacherID != "" {
					var teacher models.UserModel
					if err := s.db.First(&teacher, "id = ?", room.TeacherID).Error; err == nil {
						sum.TeacherName = teacher.Name
					}
				}
			}
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// ChildDetails assembles the drill-down view for one of the parent's
// children. Ownership is enforced here, not in the handler.
func (s *Service) ChildDetails(parentID, childID string) (*ChildDetails, error) {
	var child models.ChildModel
	err := s.db.First(&child, "id = ? AND parent_id = ?", childID, parentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errChildNotFound
	}
	if err != nil {
		return nil, err
	}

	details := &ChildDetails{
		Child:       childSummary{ChildModel: child},
		RecentPosts: []models.PostModel{},
	}
	if child.RoomID != "" {
		var room models.RoomModel
		if err := s.db.First(&room, "id = ?", child.RoomID).Error; err == nil {
			details.Child.RoomName = room.Name
			if room.TeacherID != "" {
				var teacher models.UserModel
				if err := s.db.First(&teacher, "id = ?", room.TeacherID).Error; err == nil {
					details.Child.TeacherName = teacher.Name
				}
			}
		}
	}

	today := time.Now().Format("2006-01-02")
	var report models.DailyReportModel
	err = s.db.First(&report, "child_id = ? AND date = ?", childID, today).Error
	if err == nil {
		details.TodayReport = &report
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var progress models.ProgressReportModel
	err = s.db.Where("child_id = ? AND is_completed = ?", childID, true).
		Order("report_date DESC").First(&progress).Error
	if err == nil {
		details.LatestProgress = &progress
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.db.
		Where("child_id = ? AND is_archived = ? AND visibility IN ?",
			childID, false, []string{models.VisibilityPublic, models.VisibilityParentsOnly}).
		Order("created_at DESC").Limit(5).
		Find(&details.RecentPosts).Error; err != nil {
		return nil, err
	}

	monthStart := time.Now().Format("2006-01") + "-01"
	if err := s.db.Model(&models.DailyReportModel{}).
		Where("child_id = ? AND date >= ? AND check_in_status = ?", childID, monthStart, true).
		Count(&details.AttendanceDays).Error; err != nil {
		return nil, err
	}
	return details, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/dashboard", middleware.RequireRole(models.RoleParent))
	g.GET("", h.overview)
	g.GET("/children/:id", h.childDetails)
}

func (h *Handler) overview(c *gin.Context) {
	ov, err := h.svc.Overview(c, middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, ov)
}

func (h *Handler) childDetails(c *gin.Context) {
	details, err := h.svc.ChildDetails(middleware.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, errChildNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, details)
}
