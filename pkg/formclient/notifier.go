package formclient

import (
	"fmt"
	"io"
	"sync"
)

// Toast is a transient notification
type Toast struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier shows toasts
type Notifier interface {
	Notify(t Toast)
}

// NopNotifier drops every toast
type NopNotifier struct{}

func (NopNotifier) Notify(Toast) {}

// WriterNotifier prints one line per toast
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(t Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()

	mark := "✓"
	if t.Destructive {
		mark = "✗"
	}
	fmt.Fprintf(n.w, "%s %s %s\n", mark, t.Title, t.Description)
}
