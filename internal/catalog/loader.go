package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/engine"
	"github.com/shaiso/Maidono/internal/problem"
)

// Расширения файлов групп.
var groupExtensions = []string{".yaml", ".yml"}

// GroupResult — результат загрузки одной группы.
// Ровно одно из полей Group и Err не nil.
type GroupResult struct {
	Name  string
	Group *Group
	Err   error
}

// TryLoadGroups читает все группы каталога, не останавливаясь на
// ошибках отдельных файлов. Результаты упорядочены по имени группы.
//
// Ошибка возвращается только если директорию нельзя прочитать.
func TryLoadGroups(dir string) ([]GroupResult, error) {
	files, err := listGroupFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]GroupResult, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		name := groupName(file)
		if seen[name] {
			results = append(results, GroupResult{
				Name: name,
				Err:  problem.Newf("duplicate group '%s' in file %s", name, file),
			})
			continue
		}
		seen[name] = true

		group, err := readGroupFile(name, file)
		results = append(results, GroupResult{Name: name, Group: group, Err: err})
	}
	return results, nil
}

// LoadGroups читает все группы каталога.
// Ошибки всех файлов собираются в одну.
func LoadGroups(dir string) (map[string]*Group, error) {
	results, err := TryLoadGroups(dir)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*Group, len(results))
	var report problem.Report
	for _, r := range results {
		if r.Err != nil {
			report.Add(r.Err)
			continue
		}
		groups[r.Name] = r.Group
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// ReadGroup читает одну группу по имени.
func ReadGroup(dir, name string) (*Group, error) {
	for _, ext := range groupExtensions {
		file := filepath.Join(dir, name+ext)
		info, err := os.Stat(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, problem.New("unable to read actions").Because(err)
		}
		if info.Mode().IsRegular() {
			return readGroupFile(name, file)
		}
	}
	return nil, problem.Newf("group '%s' not found", name)
}

// Entries превращает группы в записи для engine.NewRegistry.
// Порядок записей детерминирован.
func Entries(groups map[string]*Group) []engine.Entry {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)

	var entries []engine.Entry
	for _, groupName := range names {
		group := groups[groupName]
		for _, actionName := range group.ActionNames() {
			entries = append(entries, engine.Entry{
				Path:   domain.NewActionPath(groupName, actionName),
				Action: group.Actions[actionName],
			})
		}
	}
	return entries
}

// Paths возвращает пути всех actions групп по возрастанию.
func Paths(groups map[string]*Group) []domain.ActionPath {
	entries := Entries(groups)
	paths := make([]domain.ActionPath, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}

// LoadRegistry читает каталог и строит из него реестр.
func LoadRegistry(dir string, opts ...engine.Option) (*engine.Registry, error) {
	groups, err := LoadGroups(dir)
	if err != nil {
		return nil, err
	}
	return engine.NewRegistry(Entries(groups), opts...)
}

func readGroupFile(name, file string) (*Group, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, problem.Newf("unable to read file %s", file).Because(err)
	}
	return ParseGroup(name, file, data)
}

// listGroupFiles возвращает YAML-файлы директории по возрастанию имени.
func listGroupFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, problem.New("unable to read actions").Because(err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !slices.Contains(groupExtensions, filepath.Ext(name)) {
			continue
		}
		path := filepath.Join(dir, name)
		// Stat идёт по символическим ссылкам.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	slices.Sort(files)
	return files, nil
}

func groupName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
