// Package notify posts finished run summaries to a Telegram chat and answers
// a few commands from that chat.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/goserg/blockcleaner/internal/config"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/worker"
	"github.com/sirupsen/logrus"
)

// maxFailures bounds the failure list in one message.
const maxFailures = 10

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Runs is the part of the worker the chat commands need.
type Runs interface {
	Status() (worker.Status, bool)
	Cancel() error
}

var (
	_ Sender  = (*tgbotapi.BotAPI)(nil)
	_ Updater = (*tgbotapi.BotAPI)(nil)
)

type Notifier struct {
	sender   Sender
	updater  Updater
	chatID   int64
	commands map[string]command
	log      *logrus.Entry
}

func New(cfg config.Notify, debug bool, runs Runs, log *logrus.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = debug
	n := NewWithSender(bot, cfg.ChatID, log)
	n.updater = bot
	n.commands = newCommands(runs)
	return n, nil
}

// NewWithSender builds a notifier that only sends.
func NewWithSender(s Sender, chatID int64, log *logrus.Logger) *Notifier {
	return &Notifier{
		sender: s,
		chatID: chatID,
		log:    log.WithField("name", "notify"),
	}
}

// Run sends a message for every finished event and answers chat commands
// until events is closed or ctx is done.
func (n *Notifier) Run(ctx context.Context, events <-chan worker.Event) error {
	var updates tgbotapi.UpdatesChannel
	if n.updater != nil {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates = n.updater.GetUpdatesChan(u)
		defer n.updater.StopReceivingUpdates()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if e.Kind != worker.EventFinished {
				continue
			}
			n.send(Message(e))
		case update := <-updates:
			n.handleUpdate(update)
		}
	}
}

func (n *Notifier) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	// only the configured chat may drive runs
	if update.Message.Chat == nil || update.Message.Chat.ID != n.chatID {
		return
	}
	log := n.log.WithField("text", update.Message.Text)
	cmd, ok := n.commands[update.Message.Command()]
	if !ok {
		n.send("unknown command, try /help")
		return
	}
	text, err := cmd.run()
	if err != nil {
		log.WithError(err).Warn("command failed")
		text = err.Error()
	}
	n.send(text)
}

func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		n.log.WithError(err).Error("send error")
	}
}

type command struct {
	help string
	run  func() (string, error)
}

func newCommands(runs Runs) map[string]command {
	cmds := map[string]command{
		"status": {
			help: "current or last run",
			run: func() (string, error) {
				st, ok := runs.Status()
				if !ok {
					return "no runs yet", nil
				}
				return StatusText(st), nil
			},
		},
		"cancel": {
			help: "stop the current run",
			run: func() (string, error) {
				if err := runs.Cancel(); err != nil {
					return "", err
				}
				return "cancel requested", nil
			},
		},
	}
	help := command{help: "list commands"}
	help.run = func() (string, error) {
		names := make([]string, 0, len(cmds))
		for name := range cmds {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		for _, name := range names {
			fmt.Fprintf(&b, "/%s - %s\n", name, cmds[name].help)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
	cmds["help"] = help
	cmds["start"] = help
	return cmds
}

// StatusText renders a run status for the chat.
func StatusText(st worker.Status) string {
	if st.Running {
		return fmt.Sprintf("Run %s (%s): %s %d/%d", st.RunID, st.Mode, st.State, st.Done, st.Total)
	}
	if st.Summary == nil {
		return fmt.Sprintf("Run %s failed: %s", st.RunID, st.Err)
	}
	return Message(worker.Event{RunID: st.RunID, Summary: st.Summary})
}

// Message renders a finished event as plain text.
func Message(e worker.Event) string {
	var b strings.Builder
	if e.Summary == nil {
		fmt.Fprintf(&b, "Run %s failed", e.RunID)
		if e.Err != nil {
			fmt.Fprintf(&b, ": %s", e.Err)
		}
		return b.String()
	}
	sum := e.Summary
	fmt.Fprintf(&b, "Blocked list %s: %s\n", sum.Mode, sum.State)
	fmt.Fprintf(&b, "Own rank: %s\n", sum.SelfStanding)
	fmt.Fprintf(&b, "Blocked: %d, examined: %d\n", sum.Total, sum.Examined)
	if sum.Mode == domain.ModeClean {
		fmt.Fprintf(&b, "Removed: %d, failed: %d, kept: %d\n", sum.Removed, sum.FailedToRemove, sum.Kept)
	} else {
		fmt.Fprintf(&b, "Would remove: %d, kept: %d\n", sum.Candidates, sum.Kept)
	}
	if sum.PersistError != "" {
		fmt.Fprintf(&b, "Snapshot not saved: %s\n", sum.PersistError)
	}
	for i, f := range sum.Failures {
		if i == maxFailures {
			fmt.Fprintf(&b, "...and %d more\n", len(sum.Failures)-maxFailures)
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", f.Entry.RiotID(), f.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, "Error: %s\n", e.Err)
	}
	return strings.TrimRight(b.String(), "\n")
}
