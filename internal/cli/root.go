package cli

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/shaiso/Maidono/internal/config"
)

// Options — общие флаги maidonoctl.
type Options struct {
	ConfigPath  string
	APIURL      string
	ActionsDir  string
	EnabledFile string
	JSON        bool

	once sync.Once
	cfg  *config.Config
	err  error
}

// Config загружает конфигурацию один раз и применяет к ней флаги.
func (o *Options) Config() (*config.Config, error) {
	o.once.Do(func() {
		o.cfg, o.err = config.Load(o.ConfigPath)
		if o.err != nil {
			return
		}
		if o.APIURL != "" {
			o.cfg.API.URL = o.APIURL
		}
		if o.ActionsDir != "" {
			o.cfg.Actions.Dir = o.ActionsDir
		}
		if o.EnabledFile != "" {
			o.cfg.Actions.EnabledFile = o.EnabledFile
		}
	})
	return o.cfg, o.err
}

// Client создаёт HTTP-клиент сервера.
func (o *Options) Client() (*Client, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}
	return NewClient(cfg.API.URL), nil
}

// Output создаёт Output поверх потоков команды.
func (o *Options) Output(cmd *cobra.Command) *Output {
	return NewOutputTo(cmd.OutOrStdout(), cmd.ErrOrStderr(), o.JSON)
}

// NewRootCmd создаёт корневую команду maidonoctl.
func NewRootCmd(version string) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:           "maidonoctl",
		Short:         "maidonoctl — manage maidono webhook actions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "Config file (default $MAIDONO_CONFIG or "+config.DefaultPath+")")
	flags.StringVar(&opts.APIURL, "api-url", "", "Server URL (overrides api.url)")
	flags.StringVar(&opts.ActionsDir, "actions-dir", "", "Actions directory (overrides actions.dir)")
	flags.StringVar(&opts.EnabledFile, "enabled-file", "", "Enabled actions list (overrides actions.enabled_file)")
	flags.BoolVar(&opts.JSON, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		NewActionsCmd(opts),
		NewRunsCmd(opts),
		NewTestCmd(opts),
	)

	return rootCmd
}
