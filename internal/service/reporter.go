package service

import (
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/sirupsen/logrus"
)

// Reporter receives a run's log lines and progress. Implementations must not
// block for long: the engine calls them inline.
type Reporter interface {
	Log(level logrus.Level, msg string)
	Progress(state domain.RunState, done, total int)
}

// LogReporter writes everything to a logrus entry.
type LogReporter struct {
	log *logrus.Entry
}

func NewLogReporter(log *logrus.Entry) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Log(level logrus.Level, msg string) {
	r.log.Log(level, msg)
}

func (r *LogReporter) Progress(state domain.RunState, done, total int) {
	r.log.WithFields(logrus.Fields{
		"state": state,
		"done":  done,
		"total": total,
	}).Debug("progress")
}
