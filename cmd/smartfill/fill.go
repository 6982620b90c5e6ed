package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/smartfill/internal/api"
	"github.com/kalambet/smartfill/internal/fill"
)

var fillCmd = &cobra.Command{
	Use:   "fill <json | path | ->",
	Short: "Resolve the text for a field described by a JSON payload",
	Long: `Resolve the text for a field and print it to stdout.

The payload is inline JSON, a path to a JSON file, or "-" for stdin, with the
keys appName, windowTitle, fieldLabel, fieldRole, surroundingText and
selectedText. On failure a single line starting with "Error:" is printed.

Examples:
  smartfill fill '{"appName":"Safari","fieldLabel":"Email"}'
  smartfill fill /tmp/context.json
  smartfill fill --server /tmp/context.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useServer, _ := cmd.Flags().GetBool("server")
		out := cmd.OutOrStdout()

		text, err := runFill(cmd.Context(), cmd.InOrStdin(), args, useServer)
		if err != nil {
			fmt.Fprintln(out, err.Error())
			return errReported
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	fillCmd.Flags().Bool("server", false, "resolve through a running 'smartfill serve' instead of in-process")
}

// bridgeError is a failure whose text already starts with "Error:".
type bridgeError string

func (e bridgeError) Error() string { return string(e) }

func bridgeErrorf(format string, args ...any) error {
	return bridgeError("Error: " + fmt.Sprintf(format, args...))
}

func runFill(ctx context.Context, stdin io.Reader, args []string, useServer bool) (string, error) {
	if len(args) == 0 {
		return "", bridgeErrorf("Missing context data (inline JSON or file path)")
	}
	arg := args[0]
	if arg == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", bridgeErrorf("reading stdin: %v", err)
		}
		arg = string(b)
	}
	p, err := fill.ParsePayload(arg)
	if err != nil {
		return "", bridgeErrorf("%v", err)
	}

	if useServer {
		return fillViaServer(ctx, p)
	}

	a, err := openApp(ctx)
	if err != nil {
		return "", bridgeErrorf("%v", err)
	}
	defer a.Close()

	out, err := a.fills.Resolve(ctx, "cli", p.Snapshot())
	switch {
	case errors.Is(err, fill.ErrGeneration):
		return "", bridgeError(out.Content.Text)
	case err != nil:
		return "", bridgeErrorf("%v", err)
	}
	return out.Content.Text, nil
}

func fillViaServer(ctx context.Context, p fill.Payload) (string, error) {
	client, err := newAPIClient()
	if err != nil {
		return "", bridgeErrorf("%v", err)
	}
	resp, err := client.post(ctx, "/fill", p)
	if err != nil {
		return "", bridgeErrorf("%v", err)
	}
	var result api.FillResponse
	if err := decodeJSON(resp, &result); err != nil {
		var se *serverError
		if errors.As(err, &se) && strings.HasPrefix(se.Message, "Error:") {
			return "", bridgeError(se.Message)
		}
		return "", bridgeErrorf("%v", err)
	}
	return result.Text, nil
}
