package security

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Redactor masks provider credentials in text.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor creates a Redactor with patterns for the supported providers.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*regexp.Regexp{
			// key=... in request URLs
			regexp.MustCompile(`([?&](?:key|api_key)=)[A-Za-z0-9_\-\.]{8,}`),
			regexp.MustCompile(`(?i)(x-api-key:\s*)[A-Za-z0-9_\-\.]{8,}`),
			regexp.MustCompile(`(?i)(Bearer\s+)[A-Za-z0-9_\-\.]{10,256}`),
			regexp.MustCompile(`()sk-ant-[A-Za-z0-9_\-]{16,}`),
			regexp.MustCompile(`()gsk_[A-Za-z0-9]{20,}`),
			regexp.MustCompile(`()AIza[0-9A-Za-z\-_]{35}`),
		},
	}
}

// Redact masks every credential found in text. Literal secrets are masked
// first so keys with unknown formats are covered too.
func (r *Redactor) Redact(text string, secrets ...string) string {
	for _, s := range secrets {
		if len(s) >= 8 {
			text = strings.ReplaceAll(text, s, redacted)
		}
	}
	for _, p := range r.patterns {
		text = p.ReplaceAllString(text, "${1}"+redacted)
	}
	return text
}

// RedactError returns err with credentials masked in its message. The
// result still unwraps to err.
func (r *Redactor) RedactError(err error, secrets ...string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	clean := r.Redact(msg, secrets...)
	if clean == msg {
		return err
	}
	return &redactedError{msg: clean, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
