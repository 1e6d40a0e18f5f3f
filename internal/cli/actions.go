package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Maidono/internal/catalog"
	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/engine"
)

// NewActionsCmd создаёт группу команд для каталога actions.
func NewActionsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Manage actions defined in the actions directory",
	}

	cmd.AddCommand(
		newActionsListCmd(opts),
		newActionsShowCmd(opts),
		newActionsEnableCmd(opts),
		newActionsDisableCmd(opts),
		newActionsPlanCmd(opts),
	)

	return cmd
}

// actionListEntry — строка вывода actions list --json.
type actionListEntry struct {
	Group   string `json:"group"`
	Action  string `json:"action,omitempty"`
	Trigger string `json:"trigger,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newActionsListCmd(opts *Options) *cobra.Command {
	var enabledOnly, disabledOnly, invalidOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			out := opts.Output(cmd)

			// Без списка включённых actions маркеры не выводятся.
			enabled, err := catalog.LoadEnabled(cfg.Actions.EnabledFile)
			if err != nil {
				out.DetailedError(err)
				enabled = nil
			}

			results, err := catalog.TryLoadGroups(cfg.Actions.Dir)
			if err != nil {
				return err
			}

			show := func(path domain.ActionPath) bool {
				switch {
				case enabledOnly:
					return enabled != nil && enabled.IsEnabled(path)
				case disabledOnly:
					return enabled != nil && !enabled.IsEnabled(path)
				default:
					return true
				}
			}

			var entries []actionListEntry
			for _, r := range results {
				if r.Err != nil {
					entries = append(entries, actionListEntry{Group: r.Name, Error: compactError(r.Err)})
					if !out.JSONMode() {
						out.Line(0, "%s %s", r.Name, compactError(r.Err))
					}
					continue
				}
				if invalidOnly {
					continue
				}

				var names []string
				for _, name := range r.Group.ActionNames() {
					if show(domain.NewActionPath(r.Name, name)) {
						names = append(names, name)
					}
				}
				if len(names) == 0 && (enabledOnly || disabledOnly) {
					continue
				}

				if !out.JSONMode() {
					if r.Group.Len() == 0 {
						out.Line(0, "%s (empty)", r.Name)
					} else {
						out.Line(0, "%s", r.Name)
					}
				}
				for _, name := range names {
					path := domain.NewActionPath(r.Name, name)
					entry := actionListEntry{
						Group:   r.Name,
						Action:  name,
						Trigger: r.Group.Actions[name].Trigger,
					}
					if enabled != nil {
						on := enabled.IsEnabled(path)
						entry.Enabled = &on
					}
					entries = append(entries, entry)
					if !out.JSONMode() {
						out.Line(1, "%s", withMarker(enabled, path, name))
					}
				}
			}

			if out.JSONMode() {
				if entries == nil {
					entries = []actionListEntry{}
				}
				out.JSON(entries)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "Only list enabled actions")
	cmd.Flags().BoolVar(&disabledOnly, "disabled", false, "Only list disabled actions")
	cmd.Flags().BoolVar(&invalidOnly, "invalid", false, "Only list groups that fail to load")
	cmd.MarkFlagsMutuallyExclusive("enabled", "disabled", "invalid")

	return cmd
}

// actionDetails — action в выводе actions show --json.
type actionDetails struct {
	Name      string   `json:"name"`
	Trigger   string   `json:"trigger"`
	Origin    string   `json:"origin"`
	HasSecret bool     `json:"has_secret"`
	Before    []string `json:"before,omitempty"`
	After     []string `json:"after,omitempty"`
	Commands  []string `json:"commands"`
	Enabled   *bool    `json:"enabled,omitempty"`
}

func newActionsShowCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show GROUP",
		Short: "Show the configuration of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			out := opts.Output(cmd)
			name := args[0]

			enabled, err := catalog.LoadEnabled(cfg.Actions.EnabledFile)
			if err != nil {
				out.DetailedError(err)
				enabled = nil
			}

			group, err := catalog.ReadGroup(cfg.Actions.Dir, name)
			if err != nil {
				return err
			}

			if out.JSONMode() {
				details := make([]actionDetails, 0, group.Len())
				for _, actionName := range group.ActionNames() {
					a := group.Actions[actionName]
					d := actionDetails{
						Name:      actionName,
						Trigger:   a.Trigger,
						Origin:    a.Origin.String(),
						HasSecret: a.HasSecret(),
						Before:    a.Before,
						After:     a.After,
						Commands:  a.Pipeline,
					}
					if enabled != nil {
						on := enabled.IsEnabled(domain.NewActionPath(name, actionName))
						d.Enabled = &on
					}
					details = append(details, d)
				}
				out.JSON(map[string]any{"group": name, "actions": details})
				return nil
			}

			if group.Len() == 0 {
				out.Line(0, "%s (empty)", name)
				return nil
			}
			out.Line(0, "%s", name)

			for _, actionName := range group.ActionNames() {
				a := group.Actions[actionName]
				path := domain.NewActionPath(name, actionName)

				header := withMarker(enabled, path, actionName)
				if enabled != nil {
					if enabled.IsEnabled(path) {
						header += " (enabled)"
					} else {
						header += " (disabled)"
					}
				}
				out.Line(1, "%s", header)

				out.Line(2, "trigger: %s", a.Trigger)
				out.Line(2, "origin: %s", a.Origin)
				if a.HasSecret() {
					out.Line(2, "secret: %s", mask(a.Secret))
				}
				if len(a.Before) > 0 {
					out.Line(2, "before: %s", strings.Join(a.Before, ", "))
				}
				if len(a.After) > 0 {
					out.Line(2, "after: %s", strings.Join(a.After, ", "))
				}
				if len(a.Pipeline) == 1 {
					out.Line(2, "command: %s", a.Pipeline[0])
				} else {
					out.Line(2, "command:")
					for _, c := range a.Pipeline {
						out.Line(3, "%s", c)
					}
				}
				out.Line(0, "")
			}
			return nil
		},
	}
}

func newActionsEnableCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "enable PATTERN...",
		Short: "Enable an action (group/action) or a whole group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editEnabled(cmd, opts, args, func(out *Output, l *catalog.EnabledList, path domain.ActionPath) {
				if l.Enable(path) {
					out.Line(0, "%s %s is now enabled", markEnabled, path)
				} else {
					out.Line(0, "%s %s is already enabled", markSame, path)
				}
			})
		},
	}
}

func newActionsDisableCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "disable PATTERN...",
		Short: "Disable an action (group/action) or a whole group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editEnabled(cmd, opts, args, func(out *Output, l *catalog.EnabledList, path domain.ActionPath) {
				if l.Disable(path) {
					out.Line(0, "%s %s is now disabled", markDisabled, path)
				} else {
					out.Line(0, "%s %s is already disabled", markSame, path)
				}
			})
		},
	}
}

// editEnabled применяет apply ко всем actions, подходящим под шаблоны,
// и сохраняет список включённых actions.
func editEnabled(cmd *cobra.Command, opts *Options, patterns []string, apply func(*Output, *catalog.EnabledList, domain.ActionPath)) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	out := opts.Output(cmd)

	results, err := catalog.TryLoadGroups(cfg.Actions.Dir)
	if err != nil {
		return err
	}
	groups := make(map[string]*catalog.Group, len(results))
	for _, r := range results {
		if r.Err == nil {
			groups[r.Name] = r.Group
		}
	}
	available := catalog.Paths(groups)

	enabled, err := catalog.LoadEnabled(cfg.Actions.EnabledFile)
	if err != nil {
		return err
	}

	for _, raw := range patterns {
		pattern, err := domain.ParseActionPathPattern(raw)
		if err != nil {
			out.Error(fmt.Sprintf("'%s' is not a valid action path pattern", raw))
			continue
		}

		matched := false
		for _, path := range available {
			if path.Matches(pattern) {
				matched = true
				apply(out, enabled, path)
			}
		}
		if !matched {
			out.Line(0, "pattern %s did not match any actions", pattern)
		}
	}

	return enabled.Dump(cfg.Actions.EnabledFile)
}

// planEntry — шаг в выводе actions plan --json.
type planEntry struct {
	Action   string   `json:"action"`
	Commands []string `json:"commands"`
}

func newActionsPlanCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan GROUP/ACTION",
		Short: "Print the execution plan of an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			out := opts.Output(cmd)

			path, err := domain.ParseActionPath(args[0])
			if err != nil {
				return err
			}

			registry, err := catalog.LoadRegistry(cfg.Actions.Dir, engine.WithCycleDetection(true))
			if err != nil {
				return err
			}

			plan, err := registry.Resolve(path)
			if err != nil {
				return err
			}

			if out.JSONMode() {
				entries := make([]planEntry, len(plan))
				for i, e := range plan {
					entries[i] = planEntry{Action: e.Path.String(), Commands: e.Pipeline}
				}
				out.JSON(entries)
				return nil
			}

			for i, e := range plan {
				out.Line(0, "%d. %s", i+1, e.Path)
				for _, c := range e.Pipeline {
					out.Line(2, "%s", c)
				}
			}
			return nil
		},
	}
}

// withMarker добавляет к имени маркер состояния, если список известен.
func withMarker(enabled *catalog.EnabledList, path domain.ActionPath, name string) string {
	switch {
	case enabled == nil:
		return name
	case enabled.IsEnabled(path):
		return markEnabled + " " + name
	default:
		return markDisabled + " " + name
	}
}
