package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 构造一个不带签名校验价值的测试 token（alg=none 结构，签名段为空）
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	payload := base64.RawURLEncoding.EncodeToString(body)
	return header + "." + payload + "."
}

func TestFromIDToken_NamePrecedence(t *testing.T) {
	tok := makeToken(t, map[string]any{
		"sub":              "u-123",
		"email":            "alice@example.com",
		"cognito:username": "alice.w",
		"name":             "Alice Wong",
	})
	id, err := FromIDToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "Alice Wong", id.Name)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, "u-123", id.Subject)
}

func TestFromIDToken_FallsBackToUsername(t *testing.T) {
	tok := makeToken(t, map[string]any{
		"sub":              "u-456",
		"cognito:username": "bob.t",
	})
	id, err := FromIDToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "bob.t", id.Name)
}

func TestFromIDToken_Empty(t *testing.T) {
	_, err := FromIDToken("")
	assert.Error(t, err)
}

func TestFromIDToken_Garbage(t *testing.T) {
	_, err := FromIDToken("not-a-jwt")
	assert.Error(t, err)
}

func TestDisplayName_Unknown(t *testing.T) {
	assert.Equal(t, "Unknown", Identity{}.DisplayName())
	assert.Equal(t, "Alice", Identity{Name: "Alice"}.DisplayName())
}
