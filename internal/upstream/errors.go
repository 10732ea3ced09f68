package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind классифицирует отказ внешнего API.
type Kind string

const (
	KindTransientOverload Kind = "transient-overload"
	KindRateLimited       Kind = "rate-limited"
	KindMalformedResponse Kind = "malformed-response"
	KindConfigMissing     Kind = "config-missing"
	KindOther             Kind = "other"
)

const maxMessageLen = 500

type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(" ")
	}
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создает классифицированную ошибку.
func New(kind Kind, provider, message string) *Error {
	return &Error{Kind: kind, Provider: provider, Message: truncate(message)}
}

// Wrap оборачивает ошибку транспорта или парсинга с заданным классом.
func Wrap(kind Kind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// ConfigMissing сообщает об отсутствующих учетных данных.
func ConfigMissing(provider, message string) *Error {
	return New(KindConfigMissing, provider, message)
}

// FromStatus классифицирует неуспешный HTTP-ответ по коду и телу.
func FromStatus(provider string, status int, message string) *Error {
	return &Error{
		Kind:     ClassifyStatus(status, message),
		Provider: provider,
		Status:   status,
		Message:  truncate(strings.TrimSpace(message)),
	}
}

// ClassifyStatus определяет класс отказа по HTTP-коду, статусу gRPC или тексту ответа.
func ClassifyStatus(status int, message string) Kind {
	switch status {
	case http.StatusServiceUnavailable:
		return KindTransientOverload
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindConfigMissing
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "overloaded"), strings.Contains(lower, "unavailable"):
		return KindTransientOverload
	case strings.Contains(lower, "resource_exhausted"), strings.Contains(lower, "rate limit"):
		return KindRateLimited
	}

	return KindOther
}

// KindOf возвращает класс ошибки или KindOther для неклассифицированных.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var upstreamErr *Error
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Kind
	}

	return KindOther
}

// Is сообщает, относится ли ошибка к указанному классу.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func truncate(value string) string {
	if len(value) <= maxMessageLen {
		return value
	}
	return value[:maxMessageLen] + "..."
}
