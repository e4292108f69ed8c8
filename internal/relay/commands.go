package relay

import (
	"context"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/herald/internal/message"
	"github.com/linnemanlabs/herald/internal/notify/telegram"
)

// failureNotice is the only error detail operators ever see; diagnostics
// stay in the logs.
const failureNotice = "Command failed. Please try again later."

// pollRetryDelay spaces out retries after a failed update poll.
const pollRetryDelay = 5 * time.Second

// Messenger is the inbound command channel plus the reply path. Updates
// must return the offset to poll from next, acknowledging every update it
// received whether or not it produced a command.
type Messenger interface {
	Updates(ctx context.Context, offset int64) (cmds []telegram.Command, nextOffset int64, err error)
	SendMessage(ctx context.Context, chatID, text string) error
}

// CommandListener answers read-only operator commands from the inbound
// message channel: /alerts, /allalerts and /status. It never mutates
// lifecycle state.
type CommandListener struct {
	messenger Messenger
	svc       *Service
	formatter *message.Formatter
	logger    log.Logger
	metrics   *Metrics
}

// NewCommandListener creates a command listener.
func NewCommandListener(messenger Messenger, svc *Service, formatter *message.Formatter, logger log.Logger, metrics *Metrics) *CommandListener {
	if logger == nil {
		logger = log.Nop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &CommandListener{
		messenger: messenger,
		svc:       svc,
		formatter: formatter,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run long-polls for operator commands until ctx is cancelled. Poll
// failures are logged and retried after a short delay.
func (c *CommandListener) Run(ctx context.Context) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		cmds, next, err := c.messenger.Updates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error(ctx, err, "update poll failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		// Advance past everything the poll delivered. Updates that carry no
		// command still have to be acknowledged or the next poll returns
		// them again without waiting.
		if next > offset {
			offset = next
		}

		for _, cmd := range cmds {
			c.handle(ctx, cmd)
		}
	}
}

func (c *CommandListener) handle(ctx context.Context, cmd telegram.Command) {
	name := strings.TrimSpace(cmd.Text)
	switch name {
	case "/alerts", "/allalerts", "/status":
	default:
		return // not ours
	}

	L := c.logger.With("command", name, "chat", cmd.ChatID)

	text, err := c.respond(ctx, name)
	if err != nil {
		c.metrics.CommandsTotal.WithLabelValues(name, "error").Inc()
		L.Error(ctx, err, "command failed")
		text = failureNotice
	} else {
		c.metrics.CommandsTotal.WithLabelValues(name, "ok").Inc()
	}

	if err := c.messenger.SendMessage(ctx, cmd.ChatID, text); err != nil {
		L.Error(ctx, err, "command reply failed")
	}
}

func (c *CommandListener) respond(ctx context.Context, name string) (string, error) {
	switch name {
	case "/alerts":
		events, err := c.svc.ListActive(ctx, false)
		if err != nil {
			return "", err
		}
		if len(events) == 0 {
			return "No unhandled high severity events right now.", nil
		}
		return c.formatter.EventList("Unhandled high severity events", events), nil

	case "/allalerts":
		events, err := c.svc.ListActive(ctx, true)
		if err != nil {
			return "", err
		}
		if len(events) == 0 {
			return "No unhandled events right now.", nil
		}
		return c.formatter.EventList("All unhandled events", events), nil

	default: // "/status"
		st, err := c.svc.CurrentStatus(ctx)
		if err != nil {
			return "", err
		}
		return c.formatter.Status(st.Pending, st.Notified, st.MinSeverity, st.Uptime), nil
	}
}
