// Package auth 从认证提供方签发的 ID Token 里取巡检员身份。
// 客户端只做声明解码用于展示和 createdBy/updatedBy 填充，
// 签名校验是提供方和后端的职责，这里不做。
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity 巡检员身份
type Identity struct {
	Name    string
	Email   string
	Subject string
}

// 后端在缺省时使用的占位名，与这里保持一致
const unknownName = "Unknown"

// FromIDToken 解码 ID Token 的声明（不校验签名）
// name 的取值优先级：name > cognito:username > preferred_username > email > sub
func FromIDToken(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, fmt.Errorf("empty id token")
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Identity{}, fmt.Errorf("failed to parse id token: %w", err)
	}

	id := Identity{
		Email:   claimString(claims, "email"),
		Subject: claimString(claims, "sub"),
	}
	for _, k := range []string{"name", "cognito:username", "preferred_username", "email", "sub"} {
		if v := claimString(claims, k); v != "" {
			id.Name = v
			break
		}
	}
	return id, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// DisplayName 展示名；没有任何可用声明时退化为 "Unknown"
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return unknownName
}
