package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	jwtpkg "github.com/littlenest/core/internal/pkg/jwt"
	"github.com/littlenest/core/internal/pkg/mail"
	"github.com/littlenest/core/internal/pkg/outbox"
	redisc "github.com/littlenest/core/internal/pkg/redis"
	"github.com/littlenest/core/internal/pkg/response"
)

const (
	resetCodeTTL       = 15 * time.Minute
	resetCodeKeyPrefix = "ln:reset_code:"
)

// isDuplicateKeyError matches MySQL error 1062 (unique key violation).
func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

var (
	errBadCredentials  = errors.New("invalid username or password")
	errWrongPassword   = errors.New("wrong password")
	errAccountInactive = errors.New("account is not active")
	errBadResetCode    = errors.New("invalid or expired reset code")
)

type RegisterDTO struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	SchoolID string `json:"schoolId"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileDTO struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
	Phone  *string `json:"phone"`
	Email  *string `json:"email"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordDTO struct {
	Email       string `json:"email"       binding:"required,email"`
	Code        string `json:"code"        binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type userResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	Avatar        string     `json:"avatar"`
	Phone         string     `json:"phone"`
	SchoolID      string     `json:"schoolId"`
	LastLoginTime *time.Time `json:"lastLoginTime"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user"`
}

func toResponse(u *models.UserModel) *userResponse {
	return &userResponse{
		ID: u.ID, Username: u.Username, Email: u.Email, Name: u.Name,
		Role: u.Role, Status: u.Status, Avatar: u.Avatar, Phone: u.Phone,
		SchoolID: u.SchoolID, LastLoginTime: u.LastLoginTime,
	}
}

type Service struct {
	db     *gorm.DB
	rc     *redisc.Client
	mails  *outbox.Outbox
	ttl    time.Duration
}

func NewService(db *gorm.DB, rc *redisc.Client, mails *outbox.Outbox, tokenTTL time.Duration) *Service {
	return &Service{db: db, rc: rc, mails: mails, ttl: tokenTTL}
}

func (s *Service) GetByID(id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Register creates an account. The very first account becomes an active
// admin regardless of the requested role; teachers start pending until an
// admin activates them.
func (s *Service) Register(dto *RegisterDTO) (*models.UserModel, error) {
	role := strings.ToLower(strings.TrimSpace(dto.Role))
	switch role {
	case models.RoleTeacher, models.RoleParent:
	case "":
		role = models.RoleParent
	default:
		return nil, fmt.Errorf("unsupported role %q", dto.Role)
	}

	var count int64
	if err := s.db.Model(&models.UserModel{}).Count(&count).Error; err != nil {
		return nil, err
	}

	status := models.StatusActive
	if count == 0 {
		role = models.RoleAdmin
	} else if role == models.RoleTeacher {
		status = models.StatusPending
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	name := dto.Name
	if name == "" {
		name = dto.Username
	}

	u := models.UserModel{
		Username: dto.Username,
		Email:    strings.ToLower(strings.TrimSpace(dto.Email)),
		Name:     name,
		Password: string(hash),
		Role:     role,
		Status:   status,
		Phone:    dto.Phone,
		SchoolID: dto.SchoolID,
	}
	return &u, s.db.Create(&u).Error
}

// Login accepts the username or email and returns a signed token.
func (s *Service) Login(username, password, ip string) (string, *models.UserModel, error) {
	var u models.UserModel
	ident := strings.TrimSpace(username)
	err := s.db.Where("username = ? OR email = ?", ident, strings.ToLower(ident)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, errBadCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, errBadCredentials
	}
	if u.Status != models.StatusActive {
		return "", nil, errAccountInactive
	}

	now := time.Now()
	s.db.Model(&u).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})
	u.LastLoginTime = &now
	u.LastLoginIP = ip

	token, err := jwtpkg.Sign(u.ID, u.Role, u.Name, s.ttl)
	return token, &u, err
}

func (s *Service) UpdateProfile(id string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	u, err := s.GetByID(id)
	if err != nil || u == nil {
		return u, err
	}

	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
		u.Name = *dto.Name
	}
	if dto.Avatar != nil {
		updates["avatar"] = *dto.Avatar
		u.Avatar = *dto.Avatar
	}
	if dto.Phone != nil {
		updates["phone"] = *dto.Phone
		u.Phone = *dto.Phone
	}
	if dto.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*dto.Email))
		updates["email"] = email
		u.Email = email
	}
	if len(updates) == 0 {
		return u, nil
	}
	return u, s.db.Model(u).Updates(updates).Error
}

func (s *Service) ChangePassword(id, oldPwd, newPwd string) error {
	var u models.UserModel
	if err := s.db.Select("id, password").First(&u, "id = ?", id).Error; err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(oldPwd)); err != nil {
		return errWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&u).Update("password", string(hash)).Error
}

// RequestPasswordReset stores a short-lived numeric code in Redis and queues
// the email. Unknown addresses succeed silently so the endpoint does not
// leak which emails have accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var u models.UserModel
	err := s.db.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}
	if err := s.rc.Set(ctx, resetCodeKeyPrefix+email, code, resetCodeTTL); err != nil {
		return err
	}

	_, err = s.mails.Enqueue(ctx, mail.ResetCodeMessage(u.Email, u.Name, code))
	return err
}

// ResetPassword verifies the code and replaces the password. The code is
// single-use.
func (s *Service) ResetPassword(ctx context.Context, dto *ResetPasswordDTO) error {
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	key := resetCodeKeyPrefix + email

	stored, err := s.rc.Get(ctx, key)
	if err != nil {
		return err
	}
	if stored == "" || stored != strings.TrimSpace(dto.Code) {
		return errBadResetCode
	}

	var u models.UserModel
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errBadResetCode
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.db.Model(&u).Update("password", string(hash)).Error; err != nil {
		return err
	}
	return s.rc.Del(ctx, key)
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/forgot-password", h.forgotPassword)
	g.POST("/reset-password", h.resetPassword)

	a := g.Group("", middleware.Auth())
	a.GET("/profile", h.getProfile)
	a.PATCH("/profile", h.updateProfile)
	a.POST("/change-password", h.changePassword)
	a.POST("/logout", h.logout)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Register(&dto)
	if err != nil {
		if isDuplicateKeyError(err) {
			response.Conflict(c, "username or email already taken")
			return
		}
		if strings.HasPrefix(err.Error(), "unsupported role") {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, toResponse(u))
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, u, err := h.svc.Login(dto.Username, dto.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, errBadCredentials):
			response.Unauthorized(c)
		case errors.Is(err, errAccountInactive):
			response.ForbiddenMsg(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, loginResponse{Token: token, User: toResponse(u)})
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var dto ForgotPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), dto.Email); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "reset code sent if the account exists"})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var dto ResetPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), &dto); err != nil {
		if errors.Is(err, errBadResetCode) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) getProfile(c *gin.Context) {
	u, err := h.svc.GetByID(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ChangePassword(middleware.CurrentUserID(c), dto.OldPassword, dto.NewPassword); err != nil {
		if errors.Is(err, errWrongPassword) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) logout(c *gin.Context) {
	// Tokens are stateless; the client discards its copy.
	response.NoContent(c)
}
