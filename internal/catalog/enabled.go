package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/problem"
)

// Строки заголовка файла включённых actions.
const (
	enabledHeader1 = "This file is managed by maidono"
	enabledHeader2 = "please do not modify it manually"
)

// Области строк файла включённых actions.
const (
	scopeAction  = "action"
	scopeComment = "#"
)

// EnabledList — список включённых actions.
//
// Формат файла построчный: "action:group/name" — запись,
// строка с областью "#" — комментарий, пустые строки пропускаются.
type EnabledList struct {
	enabled []domain.ActionPath
}

// NewEnabledList создаёт список из путей.
func NewEnabledList(paths ...domain.ActionPath) *EnabledList {
	l := &EnabledList{}
	for _, p := range paths {
		l.Enable(p)
	}
	return l
}

// LoadEnabled читает список из файла.
// Отсутствующий файл — пустой список.
func LoadEnabled(path string) (*EnabledList, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &EnabledList{}, nil
	}
	if err != nil {
		return nil, problem.New("unable to read the enabled actions list").Because(err)
	}
	return ParseEnabled(path, bytes.NewReader(data))
}

// ParseEnabled разбирает список. file используется только в позициях ошибок.
func ParseEnabled(file string, r io.Reader) (*EnabledList, error) {
	l := &EnabledList{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		path, ok, err := parseEnabledLine(line)
		if err != nil {
			return nil, problem.From(err).InFile(file, lineNo, 0)
		}
		if ok {
			l.enabled = append(l.enabled, path)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, problem.New("unable to read the enabled actions list").Because(err)
	}
	return l, nil
}

func parseEnabledLine(line string) (domain.ActionPath, bool, error) {
	scope, rest, found := strings.Cut(line, ":")
	switch {
	case scope == scopeAction && found:
		path, err := domain.ParseActionPath(rest)
		if err != nil {
			return domain.ActionPath{}, false, err
		}
		return path, true, nil
	case scope == scopeComment:
		return domain.ActionPath{}, false, nil
	case !found:
		return domain.ActionPath{}, false, problem.Newf("invalid entry '%s'", line)
	default:
		return domain.ActionPath{}, false, problem.Newf("invalid scope '%s'", scope)
	}
}

// WriteTo записывает список вместе с заголовком.
func (l *EnabledList) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(format string, args ...any) error {
		m, err := fmt.Fprintf(bw, format, args...)
		n += int64(m)
		return err
	}

	if err := write("%s: %s\n", scopeComment, enabledHeader1); err != nil {
		return n, err
	}
	if err := write("%s: %s\n", scopeComment, enabledHeader2); err != nil {
		return n, err
	}
	for _, p := range l.enabled {
		if err := write("%s:%s\n", scopeAction, p); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Dump записывает список в файл. Запись атомарна:
// содержимое пишется во временный файл и переименовывается.
func (l *EnabledList) Dump(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".enabled-*")
	if err != nil {
		return problem.New("unable to write the enabled actions list").Because(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := l.WriteTo(tmp); err != nil {
		tmp.Close()
		return problem.New("unable to write the enabled actions list").Because(err)
	}
	if err := tmp.Close(); err != nil {
		return problem.New("unable to write the enabled actions list").Because(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return problem.New("unable to write the enabled actions list").Because(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return problem.New("unable to write the enabled actions list").Because(err)
	}
	return nil
}

// IsEnabled реализует engine.EnabledSet.
func (l *EnabledList) IsEnabled(path domain.ActionPath) bool {
	return slices.Contains(l.enabled, path)
}

// Enable добавляет путь. Возвращает false, если он уже был в списке.
func (l *EnabledList) Enable(path domain.ActionPath) bool {
	if l.IsEnabled(path) {
		return false
	}
	l.enabled = append(l.enabled, path)
	return true
}

// Disable удаляет все вхождения пути. Возвращает false, если их не было.
func (l *EnabledList) Disable(path domain.ActionPath) bool {
	before := len(l.enabled)
	l.enabled = slices.DeleteFunc(l.enabled, func(p domain.ActionPath) bool {
		return p == path
	})
	return len(l.enabled) != before
}

// Paths возвращает копию списка в порядке включения.
func (l *EnabledList) Paths() []domain.ActionPath {
	return slices.Clone(l.enabled)
}

// Len возвращает количество записей.
func (l *EnabledList) Len() int {
	return len(l.enabled)
}
