// Package handler contains the bot's command handlers. Each handler owns one
// command: it parses options, calls the domain, and hands the result to the
// presenter. Transport concerns (interactions, signatures, responses) live a
// layer up.
package handler

import (
	"strconv"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

// Command is one parsed invocation, independent of how it arrived.
type Command struct {
	// CallerID is the platform user ID of the invoker.
	CallerID string

	// GuildID and ChannelID locate the invocation.
	GuildID   string
	ChannelID string

	// Name is the command name, e.g. "start-session".
	Name string

	// Options are the named command options, stringly typed as the
	// platform delivers them.
	Options Options
}

// Options holds named command options.
type Options map[string]string

// String returns a string option, or the fallback when absent.
func (o Options) String(name, fallback string) string {
	if v, ok := o[name]; ok && v != "" {
		return v
	}
	return fallback
}

// Require returns a string option or a validation error naming it.
func (o Options) Require(name string) (string, error) {
	v, ok := o[name]
	if !ok || v == "" {
		return "", shared.NewDomainError("command", "Parse", shared.ErrValidation,
			"missing required option: "+name)
	}
	return v, nil
}

// Int returns an integer option or a validation error.
func (o Options) Int(name string) (int, error) {
	v, err := o.Require(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, shared.NewDomainError("command", "Parse", shared.ErrValidation,
			"option "+name+" must be a whole number")
	}
	return n, nil
}

// IntOr returns an integer option, the fallback when absent, or a validation
// error when present but malformed.
func (o Options) IntOr(name string, fallback int) (int, error) {
	v, ok := o[name]
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, shared.NewDomainError("command", "Parse", shared.ErrValidation,
			"option "+name+" must be a whole number")
	}
	return n, nil
}
