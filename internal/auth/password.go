package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 密码最小长度
const MinPasswordLength = 6

// ErrPasswordMismatch 密码与哈希不匹配
var ErrPasswordMismatch = errors.New("password does not match")

// PasswordHasher 凭据校验的可替换实现
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, candidate string) error
}

// BcryptHasher 基于 bcrypt 的默认实现
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher cost 非法时回退到 bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash 对明文密码进行哈希处理
func (h *BcryptHasher) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be empty")
	}
	cost := bcrypt.DefaultCost
	if h != nil && h.Cost != 0 {
		cost = h.Cost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify 验证密码是否与存储的哈希值匹配
func (h *BcryptHasher) Verify(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}
