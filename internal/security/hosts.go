package security

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/shaiso/Maidono/internal/domain"
)

// Заголовки GitHub webhooks.
const (
	HeaderUserAgent       = "User-Agent"
	HeaderGitHubDelivery  = "X-Github-Delivery"
	HeaderGitHubEvent     = "X-Github-Event"
	HeaderGitHubSignature = "X-Hub-Signature-256"

	gitHubUserAgentPrefix = "GitHub-Hookshot"
	sha256Prefix          = "sha256="
)

// HostInformationChecksOut проверяет заголовки запроса для источника.
//
// GitHub: User-Agent начинается с "GitHub-Hookshot", присутствуют
// X-Github-Delivery и X-Github-Event. Остальные источники проходят всегда.
func HostInformationChecksOut(origin domain.Origin, header http.Header) bool {
	switch origin.Kind {
	case domain.OriginGitHub:
		return strings.HasPrefix(header.Get(HeaderUserAgent), gitHubUserAgentPrefix) &&
			hasHeader(header, HeaderGitHubDelivery) &&
			hasHeader(header, HeaderGitHubEvent)
	case domain.OriginAny, domain.OriginCustom:
		return true
	default:
		// Неизвестный вид источника не пропускается.
		return false
	}
}

// ExtractSignature извлекает подпись запроса для источника.
//
// GitHub: X-Hub-Signature-256 ровно "sha256=" и 64 hex-символа.
// Для остальных источников подпись не извлекается.
func ExtractSignature(origin domain.Origin, header http.Header) (Signature, bool) {
	switch origin.Kind {
	case domain.OriginGitHub:
		return decodeHub256Signature(header.Get(HeaderGitHubSignature))
	default:
		return Signature{}, false
	}
}

func decodeHub256Signature(value string) (Signature, bool) {
	if !strings.HasPrefix(value, sha256Prefix) || len(value) != len(sha256Prefix)+2*digestSize {
		return Signature{}, false
	}

	var digest [digestSize]byte
	if _, err := hex.Decode(digest[:], []byte(value[len(sha256Prefix):])); err != nil {
		return Signature{}, false
	}
	return HS256Hex(digest), true
}

// EventInfo — сведения о доставке GitHub.
type EventInfo struct {
	DeliveryID string
	Event      string
}

// ExtractEventInfo возвращает идентификатор доставки и тип события.
// Для источников кроме GitHub возвращает пустое значение.
func ExtractEventInfo(origin domain.Origin, header http.Header) EventInfo {
	if origin.Kind != domain.OriginGitHub {
		return EventInfo{}
	}
	return EventInfo{
		DeliveryID: header.Get(HeaderGitHubDelivery),
		Event:      header.Get(HeaderGitHubEvent),
	}
}

// hasHeader проверяет наличие заголовка, в том числе с пустым значением.
func hasHeader(header http.Header, key string) bool {
	_, ok := header[http.CanonicalHeaderKey(key)]
	return ok
}
