package domain

import (
	"cmp"
	"fmt"
	"strings"
)

// ActionPath — идентификатор action вида "group/action".
//
// Первичный ключ реестра. Пути упорядочены сначала по группе,
// затем по имени action.
type ActionPath struct {
	Group  string
	Action string
}

// NewActionPath создаёт путь из частей.
func NewActionPath(group, action string) ActionPath {
	return ActionPath{Group: group, Action: action}
}

// ParseActionPath разбирает строку "group/action".
// Разделяет по первому '/'; без разделителя возвращает ошибку.
func ParseActionPath(s string) (ActionPath, error) {
	group, action, ok := strings.Cut(s, "/")
	if !ok {
		return ActionPath{}, fmt.Errorf("missing action part in path '%s'", s)
	}
	return ActionPath{Group: group, Action: action}, nil
}

// String возвращает каноническую форму "group/action".
func (p ActionPath) String() string {
	return p.Group + "/" + p.Action
}

// MarshalText реализует encoding.TextMarshaler.
func (p ActionPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (p *ActionPath) UnmarshalText(text []byte) error {
	parsed, err := ParseActionPath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Compare сравнивает пути: -1, 0 или +1.
func (p ActionPath) Compare(other ActionPath) int {
	if c := cmp.Compare(p.Group, other.Group); c != 0 {
		return c
	}
	return cmp.Compare(p.Action, other.Action)
}

// Matches проверяет, подходит ли путь под шаблон.
func (p ActionPath) Matches(pattern ActionPathPattern) bool {
	if p.Group != pattern.Group {
		return false
	}
	return pattern.Action == "" || pattern.Action == p.Action
}

// ActionPathPattern — шаблон "group" (все actions группы) или "group/action".
type ActionPathPattern struct {
	Group  string
	Action string // пустая строка — любая action группы
}

// ParseActionPathPattern разбирает шаблон. Не возвращает ошибок для
// непустой строки: отсутствие '/' означает всю группу.
func ParseActionPathPattern(s string) (ActionPathPattern, error) {
	if s == "" {
		return ActionPathPattern{}, fmt.Errorf("empty action pattern")
	}
	group, action, _ := strings.Cut(s, "/")
	return ActionPathPattern{Group: group, Action: action}, nil
}

// String возвращает шаблон в исходной форме.
func (p ActionPathPattern) String() string {
	if p.Action == "" {
		return p.Group
	}
	return p.Group + "/" + p.Action
}

// OriginKind — вид источника webhook.
type OriginKind int

const (
	// OriginAny — любой источник, структурная проверка не выполняется.
	OriginAny OriginKind = iota

	// OriginGitHub — GitHub webhooks (заголовки X-Github-*, подпись X-Hub-Signature-256).
	OriginGitHub

	// OriginCustom — именованный источник, информационный тег.
	OriginCustom
)

// Origin — политика источника для action.
type Origin struct {
	Kind OriginKind
	Name string // только для OriginCustom
}

// Готовые значения для встроенных источников.
var (
	AnyOrigin    = Origin{Kind: OriginAny}
	GitHubOrigin = Origin{Kind: OriginGitHub}
)

// CustomOrigin создаёт именованный источник.
func CustomOrigin(name string) Origin {
	return Origin{Kind: OriginCustom, Name: name}
}

// ParseOrigin разбирает значение поля "from":
// "gh"/"github" → GitHub, "*" или пусто → Any, иначе Custom.
func ParseOrigin(s string) Origin {
	switch s {
	case "gh", "github":
		return GitHubOrigin
	case "*", "":
		return AnyOrigin
	default:
		return CustomOrigin(s)
	}
}

// String реализует fmt.Stringer.
func (o Origin) String() string {
	switch o.Kind {
	case OriginGitHub:
		return "GitHub"
	case OriginCustom:
		return "'" + o.Name + "'"
	default:
		return "any"
	}
}

// Action — единица работы, запускаемая webhook'ом.
//
// Неизменяема после загрузки каталога.
type Action struct {
	// Trigger — литеральная строка "METHOD /path".
	Trigger string `json:"trigger"`

	// Origin — политика источника.
	Origin Origin `json:"-"`

	// Secret — ключ HMAC. Пустая строка — подпись не проверяется.
	Secret string `json:"-"`

	// Before — actions, выполняемые до этой (строки "group/action").
	Before []string `json:"before,omitempty"`

	// After — actions, выполняемые после этой.
	After []string `json:"after,omitempty"`

	// Pipeline — командные строки shell, не пустой список.
	Pipeline []string `json:"pipeline"`
}

// HasSecret возвращает true, если action требует подпись.
func (a *Action) HasSecret() bool {
	return a.Secret != ""
}
