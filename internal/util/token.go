package util

import (
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/pkg/config"
)

type (
	JWTClaims struct {
		ChallengerID uint       `json:"ci"`
		ChapterID    uint       `json:"hi"`
		Name         string     `json:"nm"`
		Role         model.Role `json:"rl"`
		jwt.RegisteredClaims
	}
	JWTMessage struct {
		ChallengerID uint       `json:"challengerID"`
		ChapterID    uint       `json:"chapterID"`
		Name         string     `json:"name"`
		Role         model.Role `json:"role"`
	}
)

// IsAdmin reports whether the acting principal carries the admin role.
func (m *JWTMessage) IsAdmin() bool {
	return m.Role == model.RoleAdmin
}

type TokenManager struct {
	accessSecret    string
	refreshSecret   string
	accessTokenTTL  int
	refreshTokenTTL int
}

var (
	once     sync.Once
	tokenMgr *TokenManager
)

func GetTokenMgr() *TokenManager {
	once.Do(func() {
		tokenConfig := config.NewTokenConf()
		tokenMgr = &TokenManager{
			accessSecret:    tokenConfig.AccessTokenSecret,
			refreshSecret:   tokenConfig.RefreshTokenSecret,
			accessTokenTTL:  tokenConfig.AccessTokenExpiryHour,
			refreshTokenTTL: tokenConfig.RefreshTokenExpiryHour,
		}
	})
	return tokenMgr
}

func (tm *TokenManager) createToken(msg *JWTMessage, ttl int, secret string) (string, error) {
	expiresAt := time.Now().Add(time.Hour * time.Duration(ttl))

	claims := &JWTClaims{
		ChallengerID: msg.ChallengerID,
		ChapterID:    msg.ChapterID,
		Name:         msg.Name,
		Role:         msg.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CreateTokens creates a new access token and a new refresh token
func (tm *TokenManager) CreateTokens(msg *JWTMessage) (
	accessToken string, refreshToken string, err error) {
	accessToken, err = tm.createToken(msg, tm.accessTokenTTL, tm.accessSecret)
	if err != nil {
		klog.Error(err)
		return "", "", err
	}
	refreshToken, err = tm.createToken(msg, tm.refreshTokenTTL, tm.refreshSecret)
	if err != nil {
		klog.Error(err)
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (tm *TokenManager) CheckToken(requestToken string) (JWTMessage, error) {
	return tm.parseToken(requestToken, tm.accessSecret)
}

// CheckRefreshToken validates a refresh token and returns its message so
// a fresh access token can be minted for the same principal.
func (tm *TokenManager) CheckRefreshToken(requestToken string) (JWTMessage, error) {
	return tm.parseToken(requestToken, tm.refreshSecret)
}

func (tm *TokenManager) parseToken(requestToken, secret string) (JWTMessage, error) {
	claims := JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	return JWTMessage{
		ChallengerID: claims.ChallengerID,
		ChapterID:    claims.ChapterID,
		Name:         claims.Name,
		Role:         claims.Role,
	}, err
}
