package handlers

import (
	"net/http"
	"time"
	"wallet-backend/internal/config"
	"wallet-backend/internal/models"
	"wallet-backend/internal/services"
	"wallet-backend/internal/utils"
	pkgvalidator "wallet-backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService        *services.AuthService
	attributionService *services.AttributionService
	config             *config.Config
	validator          *validator.Validate
}

func NewAuthHandler(authService *services.AuthService, attributionService *services.AttributionService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:        authService,
		attributionService: attributionService,
		config:             cfg,
		validator:          pkgvalidator.GetValidator(),
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	// 验证请求参数
	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	// 注册用户
	user, err := h.authService.Register(&req)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	// 注册携带了推荐码时顺带尝试归因，失败不影响注册结果
	if req.ReferralCode != nil {
		capturedAt := time.Now()
		if req.CapturedAt != nil {
			capturedAt = *req.CapturedAt
		}
		if _, err := h.attributionService.Convert(user.ID, *req.ReferralCode, capturedAt, nil); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("注册时归因失败")
		}
	}

	// 生成 JWT Token
	token, err := utils.GenerateToken(
		user.ID, user.Username, user.Email, user.Role,
		h.config.JWT.Secret, h.config.JWT.ExpireHours)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.SuccessWithMessage(c, "注册成功", models.UserResponse{
		User:  user,
		Token: token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	// 验证请求参数
	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	// 用户登录
	user, err := h.authService.Login(&req)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	// 生成 JWT Token
	token, err := utils.GenerateToken(
		user.ID, user.Username, user.Email, user.Role,
		h.config.JWT.Secret, h.config.JWT.ExpireHours)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.SuccessWithMessage(c, "登录成功", models.UserResponse{
		User:  user,
		Token: token,
	})
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "请先登录")
		return
	}

	user, err := h.authService.GetUserByID(userID.(uint))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, user)
}
