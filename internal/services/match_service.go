package services

import (
	"encoding/json"
	"time"
	"wallet-backend/internal/models"
	"wallet-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MatchService 把后来的注册请求解析到 0/1/多条待归因访问。
// 错误归因比漏归因更糟，所以所有歧义路径一律返回未命中，绝不猜。
type MatchService struct {
	db            *gorm.DB
	enabled       bool
	strictUA      bool
	maxCandidates int
	uaMaxLen      int
}

func NewMatchService(db *gorm.DB, enabled, strictUA bool, maxCandidates, uaMaxLen int) *MatchService {
	return &MatchService{
		db:            db,
		enabled:       enabled,
		strictUA:      strictUA,
		maxCandidates: maxCandidates,
		uaMaxLen:      uaMaxLen,
	}
}

// Match 按 IP + UA + 可选辅助信号解析待归因访问。
// 存储故障不往外抛，调用方有非概率的兜底路径，返回 no_match 即可。
func (s *MatchService) Match(ip, userAgent string, fp *models.Fingerprint) *models.MatchResult {
	if !s.enabled {
		return &models.MatchResult{Matched: false, Reason: models.ReasonDisabled}
	}

	if ip == utils.UnknownIP || ip == "" {
		return &models.MatchResult{Matched: false, Reason: models.ReasonNoMatch}
	}

	var candidates []models.PendingVisit
	err := s.db.Where("ip_address = ? AND expires_at > ?", ip, time.Now()).
		Order("created_at DESC").
		Limit(s.maxCandidates).
		Find(&candidates).Error
	if err != nil {
		logrus.WithError(err).Warn("待归因访问查询失败")
		return &models.MatchResult{Matched: false, Reason: models.ReasonNoMatch}
	}
	if len(candidates) == 0 {
		return &models.MatchResult{Matched: false, Reason: models.ReasonNoMatch}
	}

	// UA 严格匹配：与存储侧同样截断后做精确比较
	if s.strictUA {
		ua := utils.TruncateUserAgent(userAgent, s.uaMaxLen)
		filtered := candidates[:0]
		for _, v := range candidates {
			if v.UserAgent == ua {
				filtered = append(filtered, v)
			}
		}
		candidates = filtered
	}
	if len(candidates) == 0 {
		return &models.MatchResult{Matched: false, Reason: models.ReasonNoMatch}
	}

	// 辅助信号只用来收窄，收窄结果为空说明信号没用，保留原候选集
	if fp != nil && fp.ScreenResolution != nil && len(candidates) > 1 {
		var narrowed []models.PendingVisit
		for _, v := range candidates {
			if v.ScreenResolution != nil && *v.ScreenResolution == *fp.ScreenResolution {
				narrowed = append(narrowed, v)
			}
		}
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	if len(candidates) > 1 {
		// 多于一条不猜，留给它们自然过期
		return &models.MatchResult{Matched: false, Reason: models.ReasonMultipleMatches}
	}

	visit := candidates[0]

	// 删除必须放在最后一步，零行删除说明被并发请求抢先消费
	res := s.db.Delete(&models.PendingVisit{}, "id = ?", visit.ID)
	if res.Error != nil {
		logrus.WithError(res.Error).WithField("visit_id", visit.ID).Warn("待归因访问删除失败")
		return &models.MatchResult{Matched: false, Reason: models.ReasonNoMatch}
	}
	if res.RowsAffected == 0 {
		return &models.MatchResult{Matched: false, Reason: models.ReasonNoMatch}
	}

	var fullParams map[string]string
	if visit.FullParams != "" {
		if err := json.Unmarshal([]byte(visit.FullParams), &fullParams); err != nil {
			logrus.WithError(err).WithField("visit_id", visit.ID).Warn("访问参数解析失败")
		}
	}

	return &models.MatchResult{
		Matched: true,
		ReferralData: &models.ReferralData{
			Ref:        visit.ReferralCode,
			Tag:        visit.CustomTag,
			Source:     visit.Source,
			FullParams: fullParams,
			CapturedAt: visit.CreatedAt,
		},
	}
}
