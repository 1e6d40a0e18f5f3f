package problem

import (
	"fmt"
	"strings"
)

// Printer — приёмник для вывода иерархических ошибок.
type Printer interface {
	Indent()
	Unindent()
	PrintError(text string)
	PrintErrorInline(text string)
}

// Builder — Printer, собирающий вывод в строку.
// Используется для логирования ошибок одним атрибутом.
type Builder struct {
	indent  int
	newLine bool
	sb      strings.Builder
}

// NewBuilder создаёт пустой Builder.
func NewBuilder() *Builder {
	return &Builder{newLine: true}
}

// Indent увеличивает отступ.
func (b *Builder) Indent() {
	b.indent++
}

// Unindent уменьшает отступ.
func (b *Builder) Unindent() {
	if b.indent > 0 {
		b.indent--
	}
}

// PrintError выводит строку и переводит строку.
func (b *Builder) PrintError(text string) {
	fmt.Fprintf(&b.sb, "%s%s\n", b.pad(), text)
	b.newLine = true
}

// PrintErrorInline выводит текст без перевода строки.
func (b *Builder) PrintErrorInline(text string) {
	fmt.Fprintf(&b.sb, "%s%s", b.pad(), text)
	b.newLine = false
}

// String возвращает собранный вывод без завершающего перевода строки.
func (b *Builder) String() string {
	return strings.TrimRight(b.sb.String(), "\n")
}

func (b *Builder) pad() string {
	if !b.newLine {
		return ""
	}
	return strings.Repeat("  ", b.indent)
}
