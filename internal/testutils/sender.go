package testutils

import (
	"context"
	"errors"
	"sync"
)

// ErrSendFailed is the default error returned by a failing RecordingSender.
var ErrSendFailed = errors.New("smtp: 550 mailbox unavailable")

// SentEmail is one captured send.
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// RecordingSender captures sends. It fails with Err when set, and panics
// with PanicValue when that is non-nil.
type RecordingSender struct {
	mu         sync.Mutex
	sent       []SentEmail
	err        error
	panicValue any
}

// NewRecordingSender creates a sender that always succeeds.
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

// Send records the email and returns the scripted outcome. Failed and
// panicking attempts are recorded too.
func (s *RecordingSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.mu.Lock()
	s.sent = append(s.sent, SentEmail{To: to, Subject: subject, Body: htmlBody})
	err, p := s.err, s.panicValue
	s.mu.Unlock()

	if p != nil {
		panic(p)
	}
	return err
}

// FailWith makes subsequent sends return err. A nil err restores success.
func (s *RecordingSender) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// PanicWith makes subsequent sends panic with v.
func (s *RecordingSender) PanicWith(v any) {
	s.mu.Lock()
	s.panicValue = v
	s.mu.Unlock()
}

// Sent returns a copy of all attempts so far.
func (s *RecordingSender) Sent() []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentEmail, len(s.sent))
	copy(out, s.sent)
	return out
}

// Count returns the number of attempts so far.
func (s *RecordingSender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// Reset forgets previous attempts.
func (s *RecordingSender) Reset() {
	s.mu.Lock()
	s.sent = nil
	s.mu.Unlock()
}
