//go:build darwin

package accessibility

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// New returns the platform accessibility implementation.
func New() Accessibility {
	return &systemEvents{}
}

// systemEvents drives the macOS accessibility API through System Events.
type systemEvents struct{}

func (s *systemEvents) Trusted(ctx context.Context) bool {
	out, err := osascript(ctx, `tell application "System Events" to return UI elements enabled`)
	return err == nil && strings.TrimSpace(out) == "true"
}

// focusedScript returns the focused element as JSON built in JXA.
const focusedScript = `
var se = Application("System Events");
var proc = se.processes.whose({frontmost: true})[0];
function attr(el, name) { try { var v = el.attributes.byName(name).value(); return v === null ? "" : String(v); } catch (e) { return ""; } }
var el = null;
try { el = proc.attributes.byName("AXFocusedUIElement").value(); } catch (e) {}
if (!el) {
  JSON.stringify({app_name: proc.name(), bundle_id: proc.bundleIdentifier(), error: "no_focus"});
} else {
  var win = ""; try { win = attr(el.attributes.byName("AXWindow").value(), "AXTitle"); } catch (e) {}
  var around = ""; try { around = attr(el.attributes.byName("AXParent").value(), "AXValue"); } catch (e) {}
  var settable = false; try { settable = el.attributes.byName("AXValue").settable(); } catch (e) {}
  JSON.stringify({
    app_name: proc.name(), bundle_id: proc.bundleIdentifier(), window_title: win,
    title: attr(el, "AXTitle"), placeholder: attr(el, "AXPlaceholderValue"),
    role: attr(el, "AXRole"), role_description: attr(el, "AXRoleDescription"),
    value: attr(el, "AXValue"), help: attr(el, "AXHelp"),
    selected_text: attr(el, "AXSelectedText"), surrounding_text: around,
    editable: attr(el, "AXEnabled") === "true" || settable
  });
}`

type focusedReply struct {
	Snapshot
	Error string `json:"error"`
}

func (s *systemEvents) FocusedElement(ctx context.Context) (Snapshot, error) {
	if !s.Trusted(ctx) {
		return Snapshot{}, ErrPermissionDenied
	}
	out, err := jxa(ctx, focusedScript)
	if err != nil {
		return Snapshot{}, err
	}
	var r focusedReply
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		return Snapshot{}, fmt.Errorf("decoding focused element: %w", err)
	}
	if r.Error != "" {
		return r.Snapshot, ErrNoFocusedElement
	}
	if len([]rune(r.SurroundingText)) > MaxSurroundingText {
		r.SurroundingText = string([]rune(r.SurroundingText)[:MaxSurroundingText])
	}
	return r.Snapshot, nil
}

func (s *systemEvents) SetValue(ctx context.Context, text string) error {
	script := `
on run argv
  tell application "System Events"
    set p to first process whose frontmost is true
    set el to value of attribute "AXFocusedUIElement" of p
    if not (settable of attribute "AXValue" of el) then return "not_settable"
    set value of attribute "AXValue" of el to item 1 of argv
  end tell
  return "ok"
end run`
	out, err := osascript(ctx, script, text)
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "ok" {
		return ErrNotSettable
	}
	return nil
}

func (s *systemEvents) TypeRune(ctx context.Context, r rune) error {
	script := `
on run argv
  tell application "System Events" to keystroke (item 1 of argv)
end run`
	_, err := osascript(ctx, script, string(r))
	return err
}

func osascript(ctx context.Context, script string, args ...string) (string, error) {
	return run(ctx, append([]string{"-e", script}, args...)...)
}

func jxa(ctx context.Context, script string) (string, error) {
	return run(ctx, "-l", "JavaScript", "-e", script)
}

func run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := stderr.String()
		// -1719 / -25211: assistive access not granted.
		if strings.Contains(msg, "-1719") || strings.Contains(msg, "-25211") {
			return "", ErrPermissionDenied
		}
		return "", fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(msg))
	}
	return string(out), nil
}
