package feed

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

type CreatePostDTO struct {
	ChildID         string                 `json:"childId" binding:"required"`
	RoomID          string                 `json:"roomId"  binding:"required"`
	PostType        string                 `json:"postType"`
	Title           string                 `json:"title"   binding:"required"`
	Description     string                 `json:"description" binding:"required"`
	ActivityDetails models.ActivityDetails `json:"activityDetails"`
	Media           []models.Media         `json:"media"`
	Tags            []string               `json:"tags"`
	Visibility      string                 `json:"visibility"`
}

type UpdatePostDTO struct {
	Title           *string                 `json:"title"`
	Description     *string                 `json:"description"`
	PostType        *string                 `json:"postType"`
	ActivityDetails *models.ActivityDetails `json:"activityDetails"`
	Media           *[]models.Media         `json:"media"`
	Tags            *[]string               `json:"tags"`
	Visibility      *string                 `json:"visibility"`
}

type AddCommentDTO struct {
	Content string `json:"content" binding:"required"`
}

// postView decorates a post with interaction counts for the feed.
type postView struct {
	models.PostModel
	LikeCount    int64 `json:"likeCount"`
	CommentCount int64 `json:"commentCount"`
	LikedByMe    bool  `json:"likedByMe"`
}

func validPostType(t string) bool {
	switch t {
	case models.PostTypeActivity, models.PostTypeObservation,
		models.PostTypeMilestone, models.PostTypeGeneral:
		return true
	}
	return false
}

func validVisibility(v string) bool {
	switch v {
	case models.VisibilityPublic, models.VisibilityParentsOnly, models.VisibilityTeachersOnly:
		return true
	}
	return false
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) CreatePost(teacherID string, dto *CreatePostDTO) (*models.PostModel, error) {
	postType := dto.PostType
	if postType == "" {
		postType = models.PostTypeActivity
	}
	if !validPostType(postType) {
		return nil, errors.New("invalid post type")
	}
	visibility := dto.Visibility
	if visibility == "" {
		visibility = models.VisibilityParentsOnly
	}
	if !validVisibility(visibility) {
		return nil, errors.New("invalid visibility")
	}

	post := models.PostModel{
		ChildID:         dto.ChildID,
		TeacherID:       teacherID,
		RoomID:          dto.RoomID,
		PostType:        postType,
		Title:           strings.TrimSpace(dto.Title),
		Description:     dto.Description,
		ActivityDetails: dto.ActivityDetails,
		Media:           dto.Media,
		Tags:            dto.Tags,
		Visibility:      visibility,
	}
	return &post, s.db.Create(&post).Error
}

func (s *Service) UpdatePost(teacherID, postID string, dto *UpdatePostDTO) (*models.PostModel, error) {
	var post models.PostModel
	err := s.db.Where("id = ? AND teacher_id = ? AND is_archived = false", postID, teacherID).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.PostType != nil {
		if !validPostType(*dto.PostType) {
			return nil, errors.New("invalid post type")
		}
		updates["post_type"] = *dto.PostType
	}
	if dto.Visibility != nil {
		if !validVisibility(*dto.Visibility) {
			return nil, errors.New("invalid visibility")
		}
		updates["visibility"] = *dto.Visibility
	}
	if len(updates) > 0 {
		if err := s.db.Model(&post).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	// Serialized columns go through Save so the json serializer runs.
	changed := false
	if dto.ActivityDetails != nil {
		post.ActivityDetails = *dto.ActivityDetails
		changed = true
	}
	if dto.Media != nil {
		post.Media = *dto.Media
		changed = true
	}
	if dto.Tags != nil {
		post.Tags = *dto.Tags
		changed = true
	}
	if changed {
		if err := s.db.Save(&post).Error; err != nil {
			return nil, err
		}
	}
	return &post, nil
}

// DeletePost archives the post; it disappears from feeds but keeps its
// comment history.
func (s *Service) DeletePost(teacherID, postID string) (bool, error) {
	res := s.db.Model(&models.PostModel{}).
		Where("id = ? AND teacher_id = ?", postID, teacherID).
		Update("is_archived", true)
	return res.RowsAffected > 0, res.Error
}

func (s *Service) MyPosts(teacherID, postType string, q pagination.Query) ([]models.PostModel, response.Pagination, error) {
	query := s.db.Model(&models.PostModel{}).
		Where("teacher_id = ? AND is_archived = false", teacherID)
	if postType != "" {
		query = query.Where("post_type = ?", postType)
	}
	var posts []models.PostModel
	meta, err := pagination.Paginate(query.Order("created_at DESC"), q, &posts)
	return posts, meta, err
}

// feedQuery narrows posts to what the viewer may see. Parents get posts
// about their own children; teachers get their rooms' posts; admins see
// everything in their school.
func (s *Service) feedQuery(userID, role string) *gorm.DB {
	base := s.db.Model(&models.PostModel{}).Where("is_archived = false")

	switch role {
	case models.RoleParent:
		childIDs := s.db.Model(&models.ChildModel{}).Select("id").Where("parent_id = ?", userID)
		return base.Where("child_id IN (?)", childIDs).
			Where("visibility IN ?", []string{models.VisibilityPublic, models.VisibilityParentsOnly})
	case models.RoleTeacher:
		roomIDs := s.db.Model(&models.RoomModel{}).Select("id").Where("teacher_id = ?", userID)
		return base.Where("teacher_id = ? OR room_id IN (?)", userID, roomIDs)
	default:
		return base
	}
}

func (s *Service) Feed(userID, role, childID string, q pagination.Query) ([]postView, response.Pagination, error) {
	query := s.feedQuery(userID, role)
	if childID != "" {
		query = query.Where("child_id = ?", childID)
	}

	var posts []models.PostModel
	meta, err := pagination.Paginate(query.Order("created_at DESC"), q, &posts)
	if err != nil {
		return nil, meta, err
	}

	views := make([]postView, 0, len(posts))
	for i := range posts {
		views = append(views, s.decorate(&posts[i], userID))
	}
	return views, meta, nil
}

func (s *Service) decorate(post *models.PostModel, viewerID string) postView {
	view := postView{PostModel: *post}
	s.db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&view.LikeCount)
	s.db.Model(&models.PostComment{}).Where("post_id = ?", post.ID).Count(&view.CommentCount)

	var mine int64
	s.db.Model(&models.PostLike{}).Where("post_id = ? AND user_id = ?", post.ID, viewerID).Count(&mine)
	view.LikedByMe = mine > 0
	return view
}

func (s *Service) PostDetails(userID, role, postID string) (*postView, error) {
	var post models.PostModel
	err := s.feedQuery(userID, role).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.Likes").
		Where("id = ?", postID).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	view := s.decorate(&post, userID)
	return &view, nil
}

// TogglePostLike flips the viewer's like and reports the new state.
func (s *Service) TogglePostLike(userID, postID string) (liked bool, count int64, err error) {
	var existing models.PostLike
	err = s.db.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
	switch {
	case err == nil:
		if err = s.db.Delete(&existing).Error; err != nil {
			return false, 0, err
		}
		liked = false
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := models.PostLike{PostID: postID, UserID: userID, LikedAt: time.Now()}
		if err = s.db.Create(&like).Error; err != nil {
			return false, 0, err
		}
		liked = true
	default:
		return false, 0, err
	}

	err = s.db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&count).Error
	return liked, count, err
}

func (s *Service) AddComment(userID, postID, content string) (*models.PostComment, error) {
	var count int64
	s.db.Model(&models.PostModel{}).Where("id = ? AND is_archived = false", postID).Count(&count)
	if count == 0 {
		return nil, nil
	}

	comment := models.PostComment{
		PostID:  postID,
		UserID:  userID,
		Content: strings.TrimSpace(content),
	}
	return &comment, s.db.Create(&comment).Error
}

func (s *Service) ToggleCommentLike(userID, commentID string) (liked bool, count int64, err error) {
	var existing models.CommentLike
	err = s.db.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
	switch {
	case err == nil:
		if err = s.db.Delete(&existing).Error; err != nil {
			return false, 0, err
		}
		liked = false
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := models.CommentLike{CommentID: commentID, UserID: userID, LikedAt: time.Now()}
		if err = s.db.Create(&like).Error; err != nil {
			return false, 0, err
		}
		liked = true
	default:
		return false, 0, err
	}

	err = s.db.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error
	return liked, count, err
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	teacher := middleware.RequireRole(models.RoleTeacher)

	posts := rg.Group("/posts")
	posts.POST("", teacher, h.createPost)
	posts.GET("/mine", teacher, h.myPosts)
	posts.PUT("/:postId", teacher, h.updatePost)
	posts.DELETE("/:postId", teacher, h.deletePost)

	feed := rg.Group("/feed", middleware.Auth())
	feed.GET("", h.getFeed)
	feed.GET("/posts/:postId", h.postDetails)
	feed.POST("/posts/:postId/like", h.togglePostLike)
	feed.POST("/posts/:postId/comments", h.addComment)
	feed.POST("/posts/:postId/comments/:commentId/like", h.toggleCommentLike)
}

func (h *Handler) createPost(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.svc.CreatePost(middleware.CurrentUserID(c), &dto)
	if err != nil {
		if strings.HasPrefix(err.Error(), "invalid") {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, post)
}

func (h *Handler) updatePost(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.svc.UpdatePost(middleware.CurrentUserID(c), c.Param("postId"), &dto)
	if err != nil {
		if strings.HasPrefix(err.Error(), "invalid") {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, post)
}

func (h *Handler) deletePost(c *gin.Context) {
	found, err := h.svc.DeletePost(middleware.CurrentUserID(c), c.Param("postId"))
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

func (h *Handler) myPosts(c *gin.Context) {
	posts, meta, err := h.svc.MyPosts(middleware.CurrentUserID(c), c.Query("postType"), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, meta)
}

func (h *Handler) getFeed(c *gin.Context) {
	views, meta, err := h.svc.Feed(
		middleware.CurrentUserID(c), middleware.CurrentRole(c),
		c.Query("childId"), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, views, meta)
}

func (h *Handler) postDetails(c *gin.Context) {
	view, err := h.svc.PostDetails(middleware.CurrentUserID(c), middleware.CurrentRole(c), c.Param("postId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if view == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, view)
}

func (h *Handler) togglePostLike(c *gin.Context) {
	liked, count, err := h.svc.TogglePostLike(middleware.CurrentUserID(c), c.Param("postId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"liked": liked, "likeCount": count})
}

func (h *Handler) addComment(c *gin.Context) {
	var dto AddCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.svc.AddComment(middleware.CurrentUserID(c), c.Param("postId"), dto.Content)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if comment == nil {
		response.NotFoundMsg(c, "post not found")
		return
	}
	response.Created(c, comment)
}

func (h *Handler) toggleCommentLike(c *gin.Context) {
	liked, count, err := h.svc.ToggleCommentLike(middleware.CurrentUserID(c), c.Param("commentId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"liked": liked, "likeCount": count})
}
