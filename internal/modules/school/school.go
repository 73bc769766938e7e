package school

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	"github.com/littlenest/core/internal/pkg/pagination"
	"github.com/littlenest/core/internal/pkg/response"
)

type CreateSchoolDTO struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type UpdateSchoolDTO struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

type CreateRoomDTO struct {
	Name      string `json:"name" binding:"required"`
	AgeGroup  string `json:"ageGroup"`
	Capacity  int    `json:"capacity"`
	TeacherID string `json:"teacherId"`
}

type StatusDTO struct {
	Status string `json:"status" binding:"required"`
}

type AssignChildrenDTO struct {
	RoomID   string   `json:"roomId"   binding:"required"`
	ChildIDs []string `json:"childIds" binding:"required,min=1"`
}

type AddChildDTO struct {
	SchoolID    string `json:"schoolId"  binding:"required"`
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Photo       string `json:"photo"`
	Allergies   string `json:"allergies"`
	Notes       string `json:"notes"`
}

type schoolDetails struct {
	models.SchoolModel
	RoomCount    int64 `json:"roomCount"`
	TeacherCount int64 `json:"teacherCount"`
	ChildCount   int64 `json:"childCount"`
}

func validStatus(s string) bool {
	switch s {
	case models.StatusActive, models.StatusInactive, models.StatusPending:
		return true
	}
	return false
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) CreateSchool(adminID string, dto *CreateSchoolDTO) (*models.SchoolModel, error) {
	school := models.SchoolModel{
		Name:    dto.Name,
		Address: dto.Address,
		Phone:   dto.Phone,
		Email:   dto.Email,
		AdminID: adminID,
	}
	if err := s.db.Create(&school).Error; err != nil {
		return nil, err
	}
	// The creating admin is attached to their school.
	s.db.Model(&models.UserModel{}).Where("id = ?", adminID).Update("school_id", school.ID)
	return &school, nil
}

func (s *Service) ListSchools(q pagination.Query) ([]models.SchoolModel, response.Pagination, error) {
	var schools []models.SchoolModel
	meta, err := pagination.Paginate(s.db.Model(&models.SchoolModel{}).Order("created_at DESC"), q, &schools)
	return schools, meta, err
}

func (s *Service) GetSchool(id string) (*schoolDetails, error) {
	var school models.SchoolModel
	if err := s.db.First(&school, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	details := schoolDetails{SchoolModel: school}
	s.db.Model(&models.RoomModel{}).Where("school_id = ?", id).Count(&details.RoomCount)
	s.db.Model(&models.UserModel{}).Where("school_id = ? AND role = ?", id, models.RoleTeacher).Count(&details.TeacherCount)
	s.db.Model(&models.ChildModel{}).Where("school_id = ?", id).Count(&details.ChildCount)
	return &details, nil
}

func (s *Service) UpdateSchool(id string, dto *UpdateSchoolDTO) (*models.SchoolModel, error) {
	var school models.SchoolModel
	if err := s.db.First(&school, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.Address != nil {
		updates["address"] = *dto.Address
	}
	if dto.Phone != nil {
		updates["phone"] = *dto.Phone
	}
	if dto.Email != nil {
		updates["email"] = *dto.Email
	}
	if len(updates) == 0 {
		return &school, nil
	}
	return &school, s.db.Model(&school).Updates(updates).Error
}

func (s *Service) DeleteSchool(id string) error {
	return s.db.Delete(&models.SchoolModel{}, "id = ?", id).Error
}

func (s *Service) CreateRoom(schoolID string, dto *CreateRoomDTO) (*models.RoomModel, error) {
	var count int64
	s.db.Model(&models.SchoolModel{}).Where("id = ?", schoolID).Count(&count)
	if count == 0 {
		return nil, nil
	}

	room := models.RoomModel{
		SchoolID:  schoolID,
		Name:      dto.Name,
		AgeGroup:  dto.AgeGroup,
		Capacity:  dto.Capacity,
		TeacherID: dto.TeacherID,
	}
	return &room, s.db.Create(&room).Error
}

func (s *Service) ListRooms(schoolID string) ([]models.RoomModel, error) {
	var rooms []models.RoomModel
	err := s.db.Where("school_id = ?", schoolID).Order("name").Find(&rooms).Error
	return rooms, err
}

func (s *Service) ListTeachers(schoolID string, q pagination.Query) ([]models.UserModel, response.Pagination, error) {
	var teachers []models.UserModel
	query := s.db.Model(&models.UserModel{}).Where("role = ?", models.RoleTeacher)
	if schoolID != "" {
		query = query.Where("school_id = ?", schoolID)
	}
	meta, err := pagination.Paginate(query.Order("created_at DESC"), q, &teachers)
	return teachers, meta, err
}

func (s *Service) UpdateTeacherStatus(teacherID, status string) (bool, error) {
	res := s.db.Model(&models.UserModel{}).
		Where("id = ? AND role = ?", teacherID, models.RoleTeacher).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

func (s *Service) UpdateChildStatus(childID, status string) (bool, error) {
	res := s.db.Model(&models.ChildModel{}).
		Where("id = ?", childID).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

// AssignChildren moves the given children into a room. Children outside the
// room's school are skipped; the count of moved children is returned.
func (s *Service) AssignChildren(dto *AssignChildrenDTO) (int64, error) {
	var room models.RoomModel
	if err := s.db.First(&room, "id = ?", dto.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	res := s.db.Model(&models.ChildModel{}).
		Where("id IN ? AND school_id = ?", dto.ChildIDs, room.SchoolID).
		Update("room_id", room.ID)
	return res.RowsAffected, res.Error
}

func (s *Service) AddChild(parentID string, dto *AddChildDTO) (*models.ChildModel, error) {
	child := models.ChildModel{
		SchoolID:    dto.SchoolID,
		ParentID:    parentID,
		FirstName:   strings.TrimSpace(dto.FirstName),
		LastName:    strings.TrimSpace(dto.LastName),
		DateOfBirth: dto.DateOfBirth,
		Gender:      dto.Gender,
		Photo:       dto.Photo,
		Status:      models.StatusPending,
		Allergies:   dto.Allergies,
		Notes:       dto.Notes,
	}
	return &child, s.db.Create(&child).Error
}

func (s *Service) MyChildren(parentID string) ([]models.ChildModel, error) {
	var children []models.ChildModel
	err := s.db.Where("parent_id = ?", parentID).Order("first_name").Find(&children).Error
	return children, err
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := middleware.RequireRole(models.RoleAdmin)

	g := rg.Group("/schools")
	g.POST("", admin, h.createSchool)
	g.GET("", admin, h.listSchools)
	g.GET("/:id", middleware.Auth(), h.getSchool)
	g.PUT("/:id", admin, h.updateSchool)
	g.DELETE("/:id", admin, h.deleteSchool)
	g.POST("/:id/rooms", admin, h.createRoom)
	g.GET("/:id/rooms", middleware.Auth(), h.listRooms)

	rg.GET("/teachers", admin, h.listTeachers)
	rg.POST("/teachers/:id/status", admin, h.teacherStatus)
	rg.POST("/rooms/assign-children", admin, h.assignChildren)

	children := rg.Group("/children")
	children.POST("", middleware.RequireRole(models.RoleParent), h.addChild)
	children.GET("", middleware.RequireRole(models.RoleParent), h.myChildren)
	children.POST("/:id/status", admin, h.childStatus)
}

func (h *Handler) createSchool(c *gin.Context) {
	var dto CreateSchoolDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	school, err := h.svc.CreateSchool(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, school)
}

func (h *Handler) listSchools(c *gin.Context) {
	schools, meta, err := h.svc.ListSchools(pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, schools, meta)
}

func (h *Handler) getSchool(c *gin.Context) {
	details, err := h.svc.GetSchool(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if details == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, details)
}

func (h *Handler) updateSchool(c *gin.Context) {
	var dto UpdateSchoolDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	school, err := h.svc.UpdateSchool(c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if school == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, school)
}

func (h *Handler) deleteSchool(c *gin.Context) {
	if err := h.svc.DeleteSchool(c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) createRoom(c *gin.Context) {
	var dto CreateRoomDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	room, err := h.svc.CreateRoom(c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if room == nil {
		response.NotFoundMsg(c, "school not found")
		return
	}
	response.Created(c, room)
}

func (h *Handler) listRooms(c *gin.Context) {
	rooms, err := h.svc.ListRooms(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, rooms)
}

func (h *Handler) listTeachers(c *gin.Context) {
	teachers, meta, err := h.svc.ListTeachers(c.Query("schoolId"), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, teachers, meta)
}

func (h *Handler) teacherStatus(c *gin.Context) {
	var dto StatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !validStatus(dto.Status) {
		response.BadRequest(c, "invalid status")
		return
	}
	found, err := h.svc.UpdateTeacherStatus(c.Param("id"), dto.Status)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !found {
		response.NotFoundMsg(c, "teacher not found")
		return
	}
	response.NoContent(c)
}

func (h *Handler) childStatus(c *gin.Context) {
	var dto StatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !validStatus(dto.Status) {
		response.BadRequest(c, "invalid status")
		return
	}
	found, err := h.svc.UpdateChildStatus(c.Param("id"), dto.Status)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !found {
		response.NotFoundMsg(c, "child not found")
		return
	}
	response.NoContent(c)
}

func (h *Handler) assignChildren(c *gin.Context) {
	var dto AssignChildrenDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	moved, err := h.svc.AssignChildren(&dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"assigned": moved})
}

func (h *Handler) addChild(c *gin.Context) {
	var dto AddChildDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	child, err := h.svc.AddChild(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, child)
}

func (h *Handler) myChildren(c *gin.Context) {
	children, err := h.svc.MyChildren(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, children)
}
