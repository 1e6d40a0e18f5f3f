package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

const digestSize = sha256.Size

// DefaultBodyLimit — сколько байт тела читается для проверки подписи.
const DefaultBodyLimit int64 = 1024

// SignatureKind — алгоритм подписи.
type SignatureKind int

const (
	// SignatureHS256Hex — HMAC-SHA256, дайджест в hex.
	SignatureHS256Hex SignatureKind = iota + 1
)

// Signature — подпись запроса, извлечённая из заголовков.
type Signature struct {
	kind   SignatureKind
	digest [digestSize]byte
}

// HS256Hex создаёт подпись HMAC-SHA256 из дайджеста.
func HS256Hex(digest [digestSize]byte) Signature {
	return Signature{kind: SignatureHS256Hex, digest: digest}
}

// Kind возвращает алгоритм подписи.
func (s Signature) Kind() SignatureKind {
	return s.kind
}

// Matches читает не более limit байт body и сверяет подпись с ключом secret.
// Ошибка чтения означает несовпадение. limit <= 0 заменяется на DefaultBodyLimit.
func (s Signature) Matches(secret string, body io.Reader, limit int64) bool {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}

	switch s.kind {
	case SignatureHS256Hex:
		return checkHMACSHA256(secret, io.LimitReader(body, limit), s.digest[:])
	default:
		return false
	}
}

func checkHMACSHA256(secret string, message io.Reader, digest []byte) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := io.Copy(mac, message); err != nil {
		return false
	}
	return hmac.Equal(mac.Sum(nil), digest)
}

// Sign возвращает значение X-Hub-Signature-256 для body.
// Подписываются первые limit байт, как их проверяет Matches.
func Sign(secret string, body []byte, limit int64) string {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	if int64(len(body)) > limit {
		body = body[:limit]
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return sha256Prefix + hex.EncodeToString(mac.Sum(nil))
}
