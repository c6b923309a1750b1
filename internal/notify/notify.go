// Package notify delivers new-contact alerts after a run. Alerts fire
// only for added people; removals and field changes are recorded in the
// store but do not page anyone.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/model"
)

// Notifier delivers one new-contact alert for a target.
type Notifier interface {
	Notify(ctx context.Context, target model.Target, added []model.PersonRecord) error
	Name() string
}

// Multi fans an alert out to every configured channel. A failing channel
// is logged and does not stop the others; the first error is returned.
type Multi struct {
	notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Notify(ctx context.Context, target model.Target, added []model.PersonRecord) error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, target, added); err != nil {
			zap.L().Warn("notification channel failed",
				zap.String("channel", n.Name()),
				zap.String("target", target.ID),
				zap.Error(err))
			if firstErr == nil {
				firstErr = eris.Wrapf(err, "notify: %s", n.Name())
			}
		}
	}
	return firstErr
}

// formatContacts renders the added people as plain-text lines shared by
// the email body and log output.
func formatContacts(added []model.PersonRecord) string {
	var b strings.Builder
	for _, rec := range added {
		fmt.Fprintf(&b, "- %s", rec.Name)
		if rec.Title != "" {
			fmt.Fprintf(&b, ", %s", rec.Title)
		}
		if rec.Email != "" {
			fmt.Fprintf(&b, " <%s>", rec.Email)
		}
		if rec.Email == "" && rec.ProfileURL != "" {
			fmt.Fprintf(&b, " (%s)", rec.ProfileURL)
		}
		b.WriteString("\n")
	}
	return b.String()
}
