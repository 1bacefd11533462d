package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
)

// OutcomeKind is the closed set of failure classes the rest of the system
// reacts to. Raw platform errors are inspected here and nowhere else.
type OutcomeKind int

const (
	// KindTransient is retriable within the job's attempt budget
	KindTransient OutcomeKind = iota
	// KindRateLimited puts the credential used for the call into cooldown
	KindRateLimited
	// KindEntityNotFound means the bot is not a member of the group or
	// lacks admin rights; the job aborts with a user-actionable message
	KindEntityNotFound
	// KindFatal is any other unrecoverable condition
	KindFatal
)

// Outcome is a classified platform failure
type Outcome struct {
	Kind       OutcomeKind
	RetryAfter time.Duration
	Err        error
}

// Classify maps a raw Telegram API failure to exactly one outcome.
// Unknown failures default to transient so the job's retry budget bounds them.
func Classify(err error) Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Kind: KindFatal, Err: err}
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return Outcome{
			Kind:       KindRateLimited,
			RetryAfter: time.Duration(flood.RetryAfter) * time.Second,
			Err:        err,
		}
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return Outcome{Kind: KindRateLimited, Err: err}
		case apiErr.Code == 403:
			// Forbidden: kicked, not a member, or missing rights
			return Outcome{Kind: KindEntityNotFound, Err: err}
		case apiErr.Code == 400 && isNotFoundDescription(apiErr.Description):
			return Outcome{Kind: KindEntityNotFound, Err: err}
		case apiErr.Code == 401:
			// Bad credential, retrying cannot help
			return Outcome{Kind: KindFatal, Err: err}
		case apiErr.Code >= 500:
			return Outcome{Kind: KindTransient, Err: err}
		}
	}

	return Outcome{Kind: KindTransient, Err: err}
}

func isNotFoundDescription(desc string) bool {
	desc = strings.ToLower(desc)
	for _, marker := range []string{"not found", "kicked", "deactivated", "chat_id is empty"} {
		if strings.Contains(desc, marker) {
			return true
		}
	}
	return false
}
