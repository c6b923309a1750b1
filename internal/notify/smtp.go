package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/facwatch/internal/model"
)

// EmailNotifier sends new-contact digests over SMTP. The recipient comes
// from the target's NotifyEmail; targets without one are skipped.
type EmailNotifier struct {
	host string
	port int
	user string
	pass string
	from string

	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmail(host string, port int, user, pass, from string) *EmailNotifier {
	return &EmailNotifier{
		host: host,
		port: port,
		user: user,
		pass: pass,
		from: from,
		send: smtp.SendMail,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Notify(ctx context.Context, target model.Target, added []model.PersonRecord) error {
	if len(added) == 0 || target.NotifyEmail == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "smtp: context")
	}

	msg := buildEmail(e.from, target, added)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var auth smtp.Auth
	if e.user != "" {
		auth = smtp.PlainAuth("", e.user, e.pass, e.host)
	}

	if err := e.send(addr, auth, e.from, []string{target.NotifyEmail}, msg); err != nil {
		return eris.Wrapf(err, "smtp: send to %s", target.NotifyEmail)
	}
	return nil
}

func buildEmail(from string, target model.Target, added []model.PersonRecord) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", target.NotifyEmail)
	fmt.Fprintf(&b, "Subject: %d new contact(s) on %s\r\n", len(added), target.DisplayName)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "New people found on %s (%s):\n\n", target.DisplayName, target.URL)
	b.WriteString(formatContacts(added))
	return []byte(b.String())
}
