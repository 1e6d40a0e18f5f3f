package catalog

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/problem"
)

// Group — actions одного файла каталога.
type Group struct {
	// Name — имя группы (имя файла без расширения).
	Name string

	// File — путь к файлу группы.
	File string

	// Actions — actions группы по имени.
	Actions map[string]*domain.Action
}

// Len возвращает количество actions в группе.
func (g *Group) Len() int {
	return len(g.Actions)
}

// ActionNames возвращает имена actions по возрастанию.
func (g *Group) ActionNames() []string {
	names := make([]string, 0, len(g.Actions))
	for name := range g.Actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Поля action в файле группы.
const (
	fieldName   = "name"
	fieldOn     = "on"
	fieldFrom   = "from"
	fieldSecret = "secret"
	fieldBefore = "before"
	fieldAfter  = "after"
	fieldRun    = "run"
)

var knownFields = []string{fieldName, fieldOn, fieldFrom, fieldSecret, fieldBefore, fieldAfter, fieldRun}

// ParseGroup разбирает содержимое файла группы.
//
// Все ошибки файла собираются вместе и возвращаются как
// "unable to parse file F" с позициями каждой ошибки.
func ParseGroup(name, file string, data []byte) (*Group, error) {
	group := &Group{Name: name, File: file, Actions: make(map[string]*domain.Action)}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, problem.Newf("unable to parse file %s", file).Because(syntaxError(file, err))
	}

	// Пустой файл — пустая группа.
	if len(doc.Content) == 0 || isNull(doc.Content[0]) {
		return group, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, problem.Newf("unable to parse file %s", file).
			Because(at(file, root, "invalid type: expected a list of actions"))
	}

	d := decoder{file: file}
	for _, item := range root.Content {
		actionName, action, ok := d.decodeAction(item)
		if !ok {
			continue
		}
		if _, exists := group.Actions[actionName]; exists {
			d.report.Add(at(file, item, "duplicate action named '"+actionName+"'"))
			continue
		}
		group.Actions[actionName] = action
	}

	if err := d.report.Err(); err != nil {
		return nil, problem.Newf("unable to parse file %s", file).Because(err)
	}
	return group, nil
}

// decoder разбирает узлы actions, накапливая ошибки.
type decoder struct {
	file   string
	report problem.Report
}

func (d *decoder) fail(node *yaml.Node, msg string) {
	d.report.Add(at(d.file, node, msg))
}

func (d *decoder) decodeAction(node *yaml.Node) (string, *domain.Action, bool) {
	if node.Kind != yaml.MappingNode {
		d.fail(node, "invalid type: expected an action")
		return "", nil, false
	}

	before := d.report.Len()
	action := &domain.Action{Origin: domain.AnyOrigin}
	var name string
	seen := make(map[string]bool, len(knownFields))

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if seen[key.Value] {
			d.fail(key, "duplicate field `"+key.Value+"`")
			continue
		}
		seen[key.Value] = true

		switch key.Value {
		case fieldName:
			name, _ = d.str(key.Value, value)
		case fieldOn:
			action.Trigger, _ = d.str(key.Value, value)
		case fieldFrom:
			if !isNull(value) {
				if s, ok := d.str(key.Value, value); ok {
					action.Origin = domain.ParseOrigin(s)
				}
			}
		case fieldSecret:
			if !isNull(value) {
				if s, ok := d.str(key.Value, value); ok {
					if s == "" {
						d.fail(value, "invalid value for `secret`: expected a non-empty string")
					}
					action.Secret = s
				}
			}
		case fieldBefore:
			action.Before = d.refs(key.Value, value)
		case fieldAfter:
			action.After = d.refs(key.Value, value)
		case fieldRun:
			if s, ok := d.str(key.Value, value); ok {
				action.Pipeline = splitCommands(s)
				if len(action.Pipeline) == 0 {
					d.fail(value, "action has no commands")
				}
			}
		default:
			d.fail(key, "unknown field `"+key.Value+"`, expected one of "+quoteFields())
		}
	}

	for _, required := range []string{fieldName, fieldOn, fieldRun} {
		if !seen[required] {
			d.fail(node, "missing field `"+required+"`")
		}
	}

	return name, action, d.report.Len() == before
}

// str читает строковое значение поля. Числа и булевы значения без
// кавычек строками не считаются.
func (d *decoder) str(field string, node *yaml.Node) (string, bool) {
	if node.Kind != yaml.ScalarNode || node.Tag != "!!str" {
		d.fail(node, "invalid type for `"+field+"`: expected a string")
		return "", false
	}
	return node.Value, true
}

// refs читает ссылку или список ссылок на actions.
func (d *decoder) refs(field string, node *yaml.Node) []string {
	switch {
	case isNull(node):
		return nil
	case node.Kind == yaml.ScalarNode:
		if s, ok := d.str(field, node); ok {
			return []string{s}
		}
		return nil
	case node.Kind == yaml.SequenceNode:
		refs := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if s, ok := d.str(field, item); ok {
				refs = append(refs, s)
			}
		}
		return refs
	default:
		d.fail(node, "invalid type for `"+field+"`: expected a string or a list of strings")
		return nil
	}
}

// splitCommands делит многострочное значение run на команды,
// пропуская пустые строки.
func splitCommands(s string) []string {
	var commands []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			commands = append(commands, line)
		}
	}
	return commands
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func quoteFields() string {
	quoted := make([]string, len(knownFields))
	for i, f := range knownFields {
		quoted[i] = "`" + f + "`"
	}
	return strings.Join(quoted, ", ")
}

func at(file string, node *yaml.Node, msg string) *problem.Error {
	return problem.New(msg).InFile(file, node.Line, node.Column)
}

var yamlLineRe = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// syntaxError переносит номер строки из сообщения yaml.v3 в Location.
func syntaxError(file string, err error) *problem.Error {
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return problem.From(err)
	}
	line, _ := strconv.Atoi(m[1])
	return problem.New(m[2]).InFile(file, line, 0)
}
