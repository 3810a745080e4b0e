package handlers

import (
	"net/http"
	"wallet-backend/internal/models"
	"wallet-backend/internal/services"
	"wallet-backend/internal/utils"
	pkgvalidator "wallet-backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// VisitHandler 对外暴露未认证的访问上报和匹配接口
type VisitHandler struct {
	visitService *services.VisitService
	matchService *services.MatchService
	validator    *validator.Validate
}

func NewVisitHandler(visitService *services.VisitService, matchService *services.MatchService) *VisitHandler {
	return &VisitHandler{
		visitService: visitService,
		matchService: matchService,
		validator:    pkgvalidator.GetValidator(),
	}
}

// SubmitVisit 记录一次携带推荐码的访问。
// 上报是尽力而为的，存储失败也返回成功，只是没有访问 ID。
func (h *VisitHandler) SubmitVisit(c *gin.Context) {
	var req models.VisitSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationError(c, err.Error())
		return
	}

	ip := utils.ClientIP(c.Request)
	visitID := h.visitService.Track(&req, ip, c.Request.UserAgent())

	utils.Success(c, models.VisitSubmitResponse{
		Success: true,
		VisitID: visitID,
	})
}

// RequestMatch 尝试把当前请求解析到一条待归因访问
func (h *VisitHandler) RequestMatch(c *gin.Context) {
	var req models.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 请求体可以为空，指纹是可选的
		req = models.MatchRequest{}
	}

	if req.Fingerprint != nil {
		if err := h.validator.Struct(&req); err != nil {
			utils.ValidationError(c, err.Error())
			return
		}
	}

	ip := utils.ClientIP(c.Request)
	result := h.matchService.Match(ip, c.Request.UserAgent(), req.Fingerprint)

	utils.Success(c, result)
}
