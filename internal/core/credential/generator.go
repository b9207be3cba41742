package credential

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxUsernameBaseLength = 16
	usernameSuffixMin     = 1000
	usernameSuffixMax     = 9999
	fallbackUsernameBase  = "empleado"

	temporaryPasswordPrefix = "ns-"
	temporaryPasswordLength = 12
	// 紛らわしい文字 (l, o, I, O, 0, 1) を除いた 56 文字。
	temporaryPasswordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// IdentifierGenerator はユーザー名と一時パスワードの生成を抽象化します。
type IdentifierGenerator interface {
	GenerateUsername(displayName string) (string, error)
	GenerateTemporaryPassword() (string, error)
}

// Generator は乱数ソースを用いて資格情報の候補を生成します。
type Generator struct {
	random io.Reader
}

// NewGenerator は Generator を生成します。random が nil の場合は crypto/rand を使用します。
func NewGenerator(random io.Reader) *Generator {
	if random == nil {
		random = rand.Reader
	}
	return &Generator{random: random}
}

// GenerateUsername は表示名を正規化し、1000〜9999 の乱数を付与したユーザー名候補を返します。
// 一意性は保証されないため、呼び出し側でリポジトリの重複エラーを扱う必要があります。
func (g *Generator) GenerateUsername(displayName string) (string, error) {
	suffix, err := g.intn(usernameSuffixMax - usernameSuffixMin + 1)
	if err != nil {
		return "", fmt.Errorf("credential: username suffix: %w", err)
	}
	return NormalizeUsernameBase(displayName) + strconv.Itoa(usernameSuffixMin+suffix), nil
}

// GenerateTemporaryPassword は固定プレフィックス付きのランダムな一時パスワードを返します。
func (g *Generator) GenerateTemporaryPassword() (string, error) {
	var b strings.Builder
	b.Grow(len(temporaryPasswordPrefix) + temporaryPasswordLength)
	b.WriteString(temporaryPasswordPrefix)

	for i := 0; i < temporaryPasswordLength; i++ {
		idx, err := g.intn(len(temporaryPasswordAlphabet))
		if err != nil {
			return "", fmt.Errorf("credential: temporary password: %w", err)
		}
		b.WriteByte(temporaryPasswordAlphabet[idx])
	}

	return b.String(), nil
}

func (g *Generator) intn(n int) (int, error) {
	v, err := rand.Int(g.random, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// NormalizeUsernameBase は発音区別符号を除去し、小文字の英数字のみを最大 16 文字まで残します。
func NormalizeUsernameBase(displayName string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, displayName)
	if err != nil {
		stripped = displayName
	}

	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			continue
		}
		b.WriteRune(r)
		if b.Len() == maxUsernameBaseLength {
			break
		}
	}

	if b.Len() == 0 {
		return fallbackUsernameBase
	}
	return b.String()
}
