// internal/handlers/admin.go - 推荐码与推荐人的审批工作流
package handlers

import (
	"net/http"
	"strconv"
	"wallet-backend/internal/services"
	"wallet-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	registryService *services.RegistryService
	referrerService *services.ReferrerService
}

func NewAdminHandler(registryService *services.RegistryService, referrerService *services.ReferrerService) *AdminHandler {
	return &AdminHandler{
		registryService: registryService,
		referrerService: referrerService,
	}
}

// ListCodes 按状态列出推荐码，附带归因计数
func (h *AdminHandler) ListCodes(c *gin.Context) {
	status := c.Query("status")

	items, err := h.registryService.ListCodes(status)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, items)
}

// ApproveCode 审批推荐码，幂等；冲突时返回 conflict_with
func (h *AdminHandler) ApproveCode(c *gin.Context) {
	codeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的推荐码ID")
		return
	}

	result, err := h.registryService.ApproveCode(uint(codeID))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}

// RejectCode 驳回待审批的推荐码
func (h *AdminHandler) RejectCode(c *gin.Context) {
	codeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的推荐码ID")
		return
	}

	result, err := h.registryService.RejectCode(uint(codeID))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}

// ListReferrers 按状态列出推荐人
func (h *AdminHandler) ListReferrers(c *gin.Context) {
	status := c.Query("status")

	referrers, err := h.referrerService.List(status)
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, referrers)
}

// ApproveReferrer 审批推荐人，幂等
func (h *AdminHandler) ApproveReferrer(c *gin.Context) {
	referrerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的推荐人ID")
		return
	}

	result, err := h.referrerService.Approve(uint(referrerID))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}

// RejectReferrer 驳回待审批的推荐人申请
func (h *AdminHandler) RejectReferrer(c *gin.Context) {
	referrerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的推荐人ID")
		return
	}

	result, err := h.referrerService.Reject(uint(referrerID))
	if err != nil {
		utils.InternalError(c)
		return
	}

	utils.Success(c, result)
}
