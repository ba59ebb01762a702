package tmux

import (
	"context"
	"fmt"
)

// PaneSpec describes one pane of an orbit's window.
type PaneSpec struct {
	// Dir is the pane's starting directory.
	Dir string
	// Command is typed into the pane once it exists; empty leaves a shell.
	Command string
}

// LayoutFor returns the tmux layout for a window with n panes. A single pane
// needs no layout.
func LayoutFor(n int) string {
	switch {
	case n <= 1:
		return ""
	case n == 2:
		return "even-horizontal"
	case n == 3:
		return "main-vertical"
	default:
		return "tiled"
	}
}

// SetupPanes splits the session's current window into one pane per spec,
// applies the layout and then starts each pane's command in order. The first
// spec describes the pane created with the session. Panes are addressed by id
// so base-index and pane-base-index settings do not matter.
func (c *Client) SetupPanes(ctx context.Context, session string, panes []PaneSpec) error {
	if len(panes) == 0 {
		return nil
	}
	ids := make([]string, len(panes))
	if panes[0].Command != "" {
		id, err := c.FirstPane(ctx, session)
		if err != nil {
			return err
		}
		ids[0] = id
	}
	for i, p := range panes[1:] {
		id, err := c.SplitWindow(ctx, session, p.Dir)
		if err != nil {
			return err
		}
		ids[i+1] = id
	}
	if layout := LayoutFor(len(panes)); layout != "" {
		if err := c.SelectLayout(ctx, session, layout); err != nil {
			return err
		}
	}
	for i, p := range panes {
		if p.Command == "" {
			continue
		}
		if ids[i] == "" {
			return fmt.Errorf("tmux returned no pane id for pane %d of %s", i, session)
		}
		if err := c.SendKeys(ctx, ids[i], p.Command); err != nil {
			return err
		}
	}
	return nil
}
