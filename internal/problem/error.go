package problem

import (
	"errors"
	"fmt"
	"strings"
)

// Kind — вариант ошибки.
type Kind int

const (
	// KindMessage — простое сообщение.
	KindMessage Kind = iota

	// KindBecause — ошибка с причиной.
	KindBecause

	// KindAt — ошибка с позицией в файле.
	KindAt

	// KindMultiple — несколько независимых ошибок.
	KindMultiple
)

// Location — позиция в конфигурационном файле.
type Location struct {
	File   string
	Line   int
	Column int
}

// String реализует fmt.Stringer. Нулевая колонка не выводится.
func (l Location) String() string {
	if l.Column == 0 {
		return fmt.Sprintf("in file %s, line %d", l.File, l.Line)
	}
	return fmt.Sprintf("in file %s, line %d, column %d", l.File, l.Line, l.Column)
}

// Error — иерархическая ошибка.
//
// Используется только через конструкторы New/Newf/From и методы
// Because/At/And; нулевое значение не имеет смысла.
type Error struct {
	kind     Kind
	message  string
	inner    *Error
	cause    *Error
	location Location
	errs     []*Error
	wrapped  error // исходная ошибка для From (errors.Is/As)
}

// New создаёт ошибку с сообщением.
func New(message string) *Error {
	return &Error{kind: KindMessage, message: message}
}

// Newf создаёт ошибку с форматированным сообщением.
func Newf(format string, args ...any) *Error {
	return New(fmt.Sprintf(format, args...))
}

// From превращает произвольную ошибку в *Error.
// Если err уже *Error, возвращается она же.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if p, ok := err.(*Error); ok {
		return p
	}
	return &Error{kind: KindMessage, message: err.Error(), wrapped: err}
}

// Because возвращает ошибку e, вызванную cause.
func (e *Error) Because(cause error) *Error {
	return &Error{kind: KindBecause, inner: e, cause: From(cause)}
}

// At возвращает ошибку e с позицией в файле.
func (e *Error) At(location Location) *Error {
	return &Error{kind: KindAt, inner: e, location: location}
}

// InFile — сокращение для At(Location{...}).
func (e *Error) InFile(file string, line, column int) *Error {
	return e.At(Location{File: file, Line: line, Column: column})
}

// And объединяет ошибки в Multiple, сохраняя порядок.
func (e *Error) And(other *Error) *Error {
	if e.kind == KindMultiple {
		errs := make([]*Error, 0, len(e.errs)+1)
		errs = append(errs, e.errs...)
		return &Error{kind: KindMultiple, errs: append(errs, other)}
	}
	return &Error{kind: KindMultiple, errs: []*Error{e, other}}
}

// Kind возвращает вариант ошибки.
func (e *Error) Kind() Kind {
	return e.kind
}

// Errors возвращает вложенные ошибки варианта Multiple.
func (e *Error) Errors() []*Error {
	return e.errs
}

// Location возвращает позицию ошибки варианта At.
func (e *Error) Location() (Location, bool) {
	return e.location, e.kind == KindAt
}

// Error реализует интерфейс error (однострочное представление).
func (e *Error) Error() string {
	switch e.kind {
	case KindBecause:
		return e.inner.Error() + ": " + e.cause.Error()
	case KindAt:
		return e.inner.Error() + " (" + e.location.String() + ")"
	case KindMultiple:
		parts := make([]string, len(e.errs))
		for i, err := range e.errs {
			parts[i] = err.Error()
		}
		return strings.Join(parts, "; ")
	default:
		return e.message
	}
}

// Unwrap возвращает вложенные ошибки для errors.Is/As.
func (e *Error) Unwrap() []error {
	switch e.kind {
	case KindBecause:
		return []error{e.inner, e.cause}
	case KindAt:
		return []error{e.inner}
	case KindMultiple:
		errs := make([]error, len(e.errs))
		for i, err := range e.errs {
			errs[i] = err
		}
		return errs
	default:
		if e.wrapped != nil {
			return []error{e.wrapped}
		}
		return nil
	}
}

// DisplayVeryCompact выводит ошибку одной строкой без деталей.
func (e *Error) DisplayVeryCompact(p Printer) {
	switch e.kind {
	case KindMessage:
		p.PrintErrorInline(e.message)
	case KindBecause, KindAt:
		p.PrintErrorInline("1 error")
	case KindMultiple:
		p.PrintErrorInline(fmt.Sprintf("%d errors", len(e.errs)))
	}
}

// DisplayDetailed рекурсивно выводит ошибку со всеми причинами.
func (e *Error) DisplayDetailed(p Printer) {
	switch e.kind {
	case KindMessage:
		p.PrintError(e.message)
	case KindBecause:
		e.inner.DisplayDetailed(p)
		p.PrintError("due to the following error(s) :")
		p.Indent()
		e.cause.DisplayDetailed(p)
		p.Unindent()
	case KindAt:
		e.inner.DisplayDetailed(p)
		p.Indent()
		p.PrintError(e.location.String())
		p.Unindent()
	case KindMultiple:
		for _, err := range e.errs {
			err.DisplayDetailed(p)
		}
	}
}

// Detailed возвращает подробное многострочное представление ошибки.
// Для ошибок, не являющихся *Error, возвращает err.Error().
func Detailed(err error) string {
	var p *Error
	if !errors.As(err, &p) {
		return err.Error()
	}
	b := NewBuilder()
	p.DisplayDetailed(b)
	return b.String()
}
