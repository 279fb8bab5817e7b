// Package output implements the prefix-tagged line printer shared by all
// execution workers (§4.7).
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/mattn/go-isatty"
)

// Controller wraps a writable byte sink, an enabled flag and a prefix
// string. Print is a no-op when disabled. Access is serialized with a
// mutex since it is the only resource shared across worker goroutines.
type Controller struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	prefix  string
	color   bool
}

// New returns a Controller writing to w with the given prefix, colorizing
// the prefix only when w is attached to a terminal (mirrors how many CLI
// tools, including act, gate ANSI color behind an isatty check).
func New(w io.Writer, prefix string, enabled bool) *Controller {
	color := false
	if f, ok := w.(fdHaver); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	return &Controller{w: w, prefix: prefix, enabled: enabled, color: color}
}

type fdHaver interface {
	Fd() uintptr
}

// Print writes "<prefix><line>\n" when enabled; a no-op otherwise.
func (c *Controller) Print(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}

	if c.color && c.prefix != "" {
		fmt.Fprintf(c.w, "\x1b[36m%s\x1b[0m%s\n", c.prefix, line)
		return
	}
	fmt.Fprintf(c.w, "%s%s\n", c.prefix, line)
}

// SetEnabled toggles whether Print actually writes.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}
