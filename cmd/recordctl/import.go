package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/recordport/recordport/internal/service"
)

var errImportRejected = errors.New("import was not saved")

type importOptions struct {
	adminName string
	encoding  string
	confirm   string
}

func newImportCmd(global *globalOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Upload a .csv or .xlsx file over the import websocket",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(opts.confirm) {
			case "", "yes", "no":
				return nil
			}
			return fmt.Errorf("invalid --confirm %q: expected yes or no", opts.confirm)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(args[0], opts.encoding)
			if err != nil {
				return err
			}
			b := batch{
				AdminName: opts.adminName,
				FileName:  filepath.Base(args[0]),
				Encoding:  opts.encoding,
				Data:      rows,
			}
			return runImport(cmd.Context(), global.server, b, confirmer(opts.confirm, cmd.InOrStdin(), cmd.OutOrStdout()), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.adminName, "admin", "", "Owner admin name (required)")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "utf-8", "Charset of a CSV file")
	cmd.Flags().StringVar(&opts.confirm, "confirm", "", "Answer to the save prompt: yes or no (default: ask)")
	_ = cmd.MarkFlagRequired("admin")

	return cmd
}

// confirmer returns the answer to the save prompt. A fixed answer wins,
// otherwise one line is read from in.
func confirmer(fixed string, in io.Reader, out io.Writer) func() (string, error) {
	if fixed != "" {
		return func() (string, error) { return strings.ToLower(fixed), nil }
	}
	reader := bufio.NewReader(in)
	return func() (string, error) {
		fmt.Fprint(out, "Save? [yes/no]: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return strings.ToLower(strings.TrimSpace(line)), nil
	}
}

func runImport(ctx context.Context, server string, b batch, answer func() (string, error), out io.Writer) error {
	wsURL, err := importURL(server)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(b); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	var result error
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return result
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read reply: %w", err)
		}

		text := string(msg)
		fmt.Fprintln(out, text)

		switch {
		case text == service.MsgConfirmPrompt:
			a, err := answer()
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(a)); err != nil {
				return fmt.Errorf("send answer: %w", err)
			}
		case text == service.MsgClientDeclined, text == service.MsgInvalidResponse:
			result = errImportRejected
		case isErrorReply(msg):
			result = fmt.Errorf("%w: server reported an error", errImportRejected)
		}
	}
}

func isErrorReply(msg []byte) bool {
	var reply map[string]json.RawMessage
	if err := json.Unmarshal(msg, &reply); err != nil {
		return false
	}
	_, ok := reply["error"]
	return ok
}

// importURL maps an http(s) base URL to the import websocket endpoint.
func importURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/import"
	return u.String(), nil
}
