package services

import (
	"encoding/json"
	"time"
	"wallet-backend/internal/models"
	"wallet-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VisitService 记录携带推荐码的匿名访问。
// 只做一次插入，失败打日志后吞掉，绝不阻塞上层流程。
type VisitService struct {
	db          *gorm.DB
	matchWindow time.Duration
	uaMaxLen    int
}

func NewVisitService(db *gorm.DB, matchWindowMinutes, uaMaxLen int) *VisitService {
	return &VisitService{
		db:          db,
		matchWindow: time.Duration(matchWindowMinutes) * time.Minute,
		uaMaxLen:    uaMaxLen,
	}
}

// Track 存一条待归因访问，返回访问 ID，失败返回空串
func (s *VisitService) Track(req *models.VisitSubmitRequest, ip, userAgent string) string {
	var resolution *string
	if req.Fingerprint != nil {
		resolution = req.Fingerprint.ScreenResolution
	}

	fullParams := ""
	if len(req.Params) > 0 {
		if data, err := json.Marshal(req.Params); err == nil {
			fullParams = string(data)
		}
	}

	now := time.Now()
	visit := models.PendingVisit{
		ID:               uuid.NewString(),
		ReferralCode:     req.Code,
		IPAddress:        ip,
		UserAgent:        utils.TruncateUserAgent(userAgent, s.uaMaxLen),
		ScreenResolution: resolution,
		CustomTag:        req.Tag,
		Source:           req.Source,
		FullParams:       fullParams,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.matchWindow),
	}

	if err := s.db.Create(&visit).Error; err != nil {
		logrus.WithError(err).WithField("code", req.Code).Warn("访问记录写入失败")
		return ""
	}
	return visit.ID
}
