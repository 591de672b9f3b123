package notification

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/smallbiznis/rendezvous/internal/providers/email"
)

// EmailDispatcher mails the ops recipients plus any recipients carried on
// the notification that look like addresses.
type EmailDispatcher struct {
	provider email.Provider
	ops      []string
}

func NewEmailDispatcher(provider email.Provider, ops []string) *EmailDispatcher {
	return &EmailDispatcher{provider: provider, ops: ops}
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, n Notification) error {
	to := d.recipients(n)
	if len(to) == 0 {
		return nil
	}
	body := fmt.Sprintf("<p>%s</p><p>%s %s (%s)</p>",
		html.EscapeString(n.Body),
		html.EscapeString(n.EntityType),
		html.EscapeString(n.EntityID),
		html.EscapeString(n.ServiceModule),
	)
	return d.provider.Send(ctx, to, n.Subject, body)
}

func (d *EmailDispatcher) recipients(n Notification) []string {
	seen := make(map[string]struct{}, len(d.ops)+len(n.Recipients))
	out := make([]string, 0, len(d.ops)+len(n.Recipients))
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" || !strings.Contains(addr, "@") {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	for _, addr := range d.ops {
		add(addr)
	}
	for _, addr := range n.Recipients {
		add(addr)
	}
	return out
}
