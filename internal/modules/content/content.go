package content

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	"github.com/littlenest/core/internal/pkg/response"
)

// markdown renders FAQ answers and about sections. Raw HTML in the source
// stays escaped.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderMarkdown converts a Markdown body to HTML. On render failure the
// raw text is returned so content is never lost.
func RenderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return src
	}
	return buf.String()
}

type FaqDTO struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer"   binding:"required"`
}

type AboutDTO struct {
	Title   string `json:"title"   binding:"required"`
	Content string `json:"content" binding:"required"`
}

type faqView struct {
	models.FaqModel
	AnswerHTML string `json:"answerHtml"`
}

type aboutView struct {
	models.AboutModel
	ContentHTML string `json:"contentHtml"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) CreateFaq(userID string, dto *FaqDTO) (*models.FaqModel, error) {
	faq := models.FaqModel{
		Question:  strings.TrimSpace(dto.Question),
		Answer:    dto.Answer,
		CreatedBy: userID,
	}
	return &faq, s.db.Create(&faq).Error
}

func (s *Service) ListFaqs() ([]faqView, error) {
	var faqs []models.FaqModel
	if err := s.db.Order("created_at ASC").Find(&faqs).Error; err != nil {
		return nil, err
	}
	views := make([]faqView, 0, len(faqs))
	for _, f := range faqs {
		views = append(views, faqView{FaqModel: f, AnswerHTML: RenderMarkdown(f.Answer)})
	}
	return views, nil
}

// SearchFaqs matches the query against questions and answers,
// case-insensitively.
func (s *Service) SearchFaqs(q string) ([]faqView, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	var faqs []models.FaqModel
	err := s.db.Where("LOWER(question) LIKE ? OR LOWER(answer) LIKE ?", pattern, pattern).
		Order("created_at ASC").Find(&faqs).Error
	if err != nil {
		return nil, err
	}
	views := make([]faqView, 0, len(faqs))
	for _, f := range faqs {
		views = append(views, faqView{FaqModel: f, AnswerHTML: RenderMarkdown(f.Answer)})
	}
	return views, nil
}

func (s *Service) UpdateFaq(userID, id string, dto *FaqDTO) (*models.FaqModel, error) {
	var faq models.FaqModel
	err := s.db.First(&faq, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	faq.Question = strings.TrimSpace(dto.Question)
	faq.Answer = dto.Answer
	faq.UpdatedBy = userID
	return &faq, s.db.Save(&faq).Error
}

func (s *Service) DeleteFaq(id string) (bool, error) {
	res := s.db.Delete(&models.FaqModel{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (s *Service) CreateAbout(userID string, dto *AboutDTO) (*models.AboutModel, error) {
	about := models.AboutModel{
		Title:     strings.TrimSpace(dto.Title),
		Content:   dto.Content,
		CreatedBy: userID,
	}
	return &about, s.db.Create(&about).Error
}

func (s *Service) ListAbout() ([]aboutView, error) {
	var sections []models.AboutModel
	if err := s.db.Order("created_at ASC").Find(&sections).Error; err != nil {
		return nil, err
	}
	views := make([]aboutView, 0, len(sections))
	for _, a := range sections {
		views = append(views, aboutView{AboutModel: a, ContentHTML: RenderMarkdown(a.Content)})
	}
	return views, nil
}

func (s *Service) UpdateAbout(userID, id string, dto *AboutDTO) (*models.AboutModel, error) {
	var about models.AboutModel
	err := s.db.First(&about, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	about.Title = strings.TrimSpace(dto.Title)
	about.Content = dto.Content
	about.UpdatedBy = userID
	return &about, s.db.Save(&about).Error
}

func (s *Service) DeleteAbout(id string) (bool, error) {
	res := s.db.Delete(&models.AboutModel{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := middleware.RequireRole(models.RoleAdmin)

	faq := rg.Group("/faq")
	faq.GET("", h.listFaqs)
	faq.GET("/search", h.searchFaqs)
	faq.POST("", admin, h.createFaq)
	faq.PUT("/:id", admin, h.updateFaq)
	faq.DELETE("/:id", admin, h.deleteFaq)

	about := rg.Group("/about")
	about.GET("", h.listAbout)
	about.POST("", admin, h.createAbout)
	about.PUT("/:id", admin, h.updateAbout)
	about.DELETE("/:id", admin, h.deleteAbout)
}

func (h *Handler) createFaq(c *gin.Context) {
	var dto FaqDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	faq, err := h.svc.CreateFaq(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, faq)
}

func (h *Handler) listFaqs(c *gin.Context) {
	views, err := h.svc.ListFaqs()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, views)
}

func (h *Handler) searchFaqs(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		response.BadRequest(c, "q is required")
		return
	}
	views, err := h.svc.SearchFaqs(q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, views)
}

func (h *Handler) updateFaq(c *gin.Context) {
	var dto FaqDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	faq, err := h.svc.UpdateFaq(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if faq == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, faq)
}

func (h *Handler) deleteFaq(c *gin.Context) {
	found, err := h.svc.DeleteFaq(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !found {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}

func (h *Handler) createAbout(c *gin.Context) {
	var dto AboutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	about, err := h.svc.CreateAbout(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, about)
}

func (h *Handler) listAbout(c *gin.Context) {
	views, err := h.svc.ListAbout()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, views)
}

func (h *Handler) updateAbout(c *gin.Context) {
	var dto AboutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	about, err := h.svc.UpdateAbout(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if about == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, about)
}

func (h *Handler) deleteAbout(c *gin.Context) {
	found, err := h.svc.DeleteAbout(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !found {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}
