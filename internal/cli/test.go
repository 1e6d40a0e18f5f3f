package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Maidono/internal/catalog"
	"github.com/shaiso/Maidono/internal/domain"
	"github.com/shaiso/Maidono/internal/security"
)

// testUserAgent — User-Agent тестовых доставок GitHub.
const testUserAgent = "GitHub-Hookshot/maidonoctl"

// NewTestCmd создаёт команду отправки тестового webhook.
func NewTestCmd(opts *Options) *cobra.Command {
	var payload, payloadFile, event string

	cmd := &cobra.Command{
		Use:   "test GROUP/ACTION|URL",
		Short: "Trigger an action for testing",
		Long: "Sends the trigger request of an action to the server. For GitHub actions the\n" +
			"request carries GitHub headers and, when the action has a secret, a valid\n" +
			"X-Hub-Signature-256. A full URL is sent as a plain POST.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			out := opts.Output(cmd)

			if payload != "" && payloadFile != "" {
				return errors.New("--payload and --payload-file are mutually exclusive")
			}
			body, err := readPayload(cmd.InOrStdin(), payload, payloadFile)
			if err != nil {
				return err
			}

			req, err := buildTestRequest(cfg.Actions.Dir, args[0], event, body, cfg.Server.BodyLimit)
			if err != nil {
				return err
			}

			client := NewClient(cfg.API.URL)
			status, err := client.Trigger(req.method, req.target, req.header, body)
			if err != nil {
				return err
			}

			out.Line(0, "%s %s -> %d %s", req.method, req.target, status, http.StatusText(status))
			if status >= http.StatusBadRequest {
				return fmt.Errorf("server answered %d", status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "P", "", "Request body")
	cmd.Flags().StringVarP(&payloadFile, "payload-file", "F", "", "Read the request body from a file ('-' for stdin)")
	cmd.Flags().StringVar(&event, "event", "ping", "X-Github-Event value for GitHub actions")

	return cmd
}

// testRequest — запрос, который отправит test.
type testRequest struct {
	method string
	target string
	header http.Header
}

// buildTestRequest строит запрос по action или URL.
func buildTestRequest(actionsDir, nameOrURL, event string, body []byte, bodyLimit int64) (*testRequest, error) {
	if strings.HasPrefix(nameOrURL, "http://") || strings.HasPrefix(nameOrURL, "https://") {
		return &testRequest{method: http.MethodPost, target: nameOrURL, header: http.Header{}}, nil
	}

	path, err := domain.ParseActionPath(nameOrURL)
	if err != nil {
		return nil, err
	}
	group, err := catalog.ReadGroup(actionsDir, path.Group)
	if err != nil {
		return nil, err
	}
	action, ok := group.Actions[path.Action]
	if !ok {
		return nil, fmt.Errorf("action '%s' not found", path)
	}

	method, target, ok := strings.Cut(action.Trigger, " ")
	if !ok || method == "" || !strings.HasPrefix(target, "/") {
		return nil, fmt.Errorf("action '%s' has a trigger that cannot be sent: %q", path, action.Trigger)
	}

	header := http.Header{}
	if action.Origin.Kind == domain.OriginGitHub {
		header.Set(security.HeaderUserAgent, testUserAgent)
		header.Set(security.HeaderGitHubDelivery, uuid.NewString())
		header.Set(security.HeaderGitHubEvent, event)
		if action.HasSecret() {
			header.Set(security.HeaderGitHubSignature, security.Sign(action.Secret, body, bodyLimit))
		}
	}
	if len(body) > 0 {
		header.Set("Content-Type", "application/json")
	}

	return &testRequest{method: method, target: target, header: header}, nil
}

func readPayload(stdin io.Reader, payload, file string) ([]byte, error) {
	switch {
	case file == "-":
		return io.ReadAll(stdin)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return data, nil
	default:
		return []byte(payload), nil
	}
}
