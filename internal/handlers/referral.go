package handlers

import (
	"net/http"
	"time"
	"wallet-backend/internal/models"
	"wallet-backend/internal/services"
	"wallet-backend/internal/utils"
	pkgvalidator "wallet-backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ReferralHandler 面向已认证用户的推荐码与归因接口
type ReferralHandler struct {
	registryService    *services.RegistryService
	referrerService    *services.ReferrerService
	legacyService      *services.LegacyCodeService
	attributionService *services.AttributionService
	validator          *validator.Validate
}

func NewReferralHandler(
	registryService *services.RegistryService,
	referrerService *services.ReferrerService,
	legacyService *services.LegacyCodeService,
	attributionService *services.AttributionService,
) *ReferralHandler {
	return &ReferralHandler{
		registryService:    registryService,
		referrerService:    referrerService,
		legacyService:      legacyService,
		attributionService: attributionService,
		validator:          pkgvalidator.GetValidator(),
	}
}

// RequestCode 申请推荐码，body 可带自选码串
func (h *ReferralHandler) RequestCode(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.CodeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 空请求体表示自动生成
		req = models.CodeRequestRequest{}
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}
	if req.Code != nil && !h.registryService.Generator().IsValidFormat(*req.Code) {
		utils.Error(c, http.StatusBadRequest, "推荐码格式无效")
		return
	}

	result, err := h.registryService.RequestCode(userID.(uint), &req)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}

// RequestOwnCode 旧的一人一码申请入口，走适配层
func (h *ReferralHandler) RequestOwnCode(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.CodeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = models.CodeRequestRequest{}
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}
	if req.Code != nil && !h.registryService.Generator().IsValidFormat(*req.Code) {
		utils.Error(c, http.StatusBadRequest, "推荐码格式无效")
		return
	}

	result, err := h.legacyService.RequestCode(userID.(uint), &req)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}

// ListCodes 列出自己名下的推荐码
func (h *ReferralHandler) ListCodes(c *gin.Context) {
	userID, _ := c.Get("user_id")

	codes, err := h.registryService.ListOwn(userID.(uint))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, codes)
}

// UpdateCode 持有人更新标签或启停
func (h *ReferralHandler) UpdateCode(c *gin.Context) {
	userID, _ := c.Get("user_id")
	code := c.Param("code")

	var req models.CodeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	result, err := h.registryService.UpdateCode(userID.(uint), code, &req)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}

// Stats 推荐人统计
func (h *ReferralHandler) Stats(c *gin.Context) {
	userID, _ := c.Get("user_id")

	stats, err := h.registryService.Stats(userID.(uint))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, stats)
}

// RequestReferrer 申请推荐人资格
func (h *ReferralHandler) RequestReferrer(c *gin.Context) {
	userID, _ := c.Get("user_id")

	result, err := h.referrerService.Request(userID.(uint))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}

// UpdateNotify 更新推荐通知偏好
func (h *ReferralHandler) UpdateNotify(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.ReferrerNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	result, err := h.referrerService.SetNotify(userID.(uint), req.CanNotify)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}

// Convert 把匹配到的推荐码转成永久归因记录
func (h *ReferralHandler) Convert(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	var code string
	var capturedAt time.Time
	switch {
	case req.ReferralData != nil:
		code = req.ReferralData.Ref
		capturedAt = req.ReferralData.CapturedAt
	case req.Code != nil && req.CapturedAt != nil:
		code = *req.Code
		capturedAt = *req.CapturedAt
	default:
		utils.Error(c, http.StatusBadRequest, "缺少推荐码或捕获时间")
		return
	}

	result, err := h.attributionService.Convert(userID.(uint), code, capturedAt, req.ReferralData)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}
