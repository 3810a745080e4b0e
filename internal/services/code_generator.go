package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"wallet-backend/internal/models"

	"gorm.io/gorm"
)

// 推荐码字符集，排除易混淆字符（0/O、1/I/l），共 32 个字符。
// 长度 8 的键空间约 1.1e12，正常规模下碰撞可以忽略。
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// 生成唯一码的最大尝试次数，耗尽说明字符集或长度配置有问题
const maxGenerateAttempts = 10

type CodeGenerator struct {
	length int
}

func NewCodeGenerator(length int) *CodeGenerator {
	return &CodeGenerator{length: length}
}

// Generate 均匀随机生成一个推荐码
func (g *CodeGenerator) Generate() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(codeCharset)))
	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeCharset[n.Int64()])
	}
	return sb.String(), nil
}

// GenerateUnique 生成一个注册表中不存在的推荐码。
// 重试耗尽按基础设施错误处理，不是业务结果。
func (g *CodeGenerator) GenerateUnique(db *gorm.DB) (string, error) {
	for i := 0; i < maxGenerateAttempts; i++ {
		code, err := g.Generate()
		if err != nil {
			return "", err
		}

		var count int64
		if err := db.Model(&models.ReferralCode{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("无法生成唯一推荐码，已尝试 %d 次", maxGenerateAttempts)
}

// IsValidFormat 纯格式校验，不访问存储
func (g *CodeGenerator) IsValidFormat(code string) bool {
	if len(code) != g.length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeCharset, rune(code[i])) {
			return false
		}
	}
	return true
}
