package credential

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost はパスワードハッシュのデフォルトコストです。
const DefaultBcryptCost = 10

// bcryptMaxInput は bcrypt が受け付ける入力の最大バイト数です。
const bcryptMaxInput = 72

// Hasher はパスワードのハッシュ化と検証を提供します。
type Hasher interface {
	// Hash は一方向ハッシュを生成します。
	Hash(password string) (string, error)
	// Verify は一致時 (true, nil)、不一致時 (false, nil)、ダイジェスト破損時 ErrMalformedHash を返します。
	Verify(password, digest string) (bool, error)
}

// BcryptHasher は bcrypt による Hasher 実装です。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は BcryptHasher を生成します。範囲外のコストはクランプされ、0 はデフォルト値になります。
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = DefaultBcryptCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost は使用中のコストを返します。
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash は bcrypt ダイジェストを生成します。
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	digest, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("credential: hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は bcrypt の定数時間比較でパスワードを検証します。
func (h *BcryptHasher) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), bcryptInput(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// bcryptInput は 72 バイトを超える入力を SHA-256 の base64 表現 (44 バイト) に縮めます。
// 72 バイト以下の入力はそのまま使うため既存のダイジェストとの互換性は保たれます。
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
