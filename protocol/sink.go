package protocol

import "fmt"

// Sink absorbs the tokens of exactly one reply. The parser calls one
// Select* per aggregate it opens and one On* per scalar leaf. A sink is
// single use; ownership crosses the Parse call.
//
// Concrete sinks embed BaseSink, which records error and null replies as
// status and rejects every other callback, and override the callbacks for
// the shapes they can absorb.
type Sink interface {
	SelectArray(n int) error
	SelectPush(n int) error
	SelectSet(n int) error
	SelectMap(n int) error
	SelectAttribute(n int) error

	OnSimpleString(b []byte) error
	OnSimpleError(b []byte) error
	OnNumber(b []byte) error
	OnDouble(b []byte) error
	OnBool(b []byte) error
	OnBigNumber(b []byte) error
	OnBlobString(b []byte) error
	OnBlobError(b []byte) error
	OnVerbatimString(b []byte) error
	OnStreamedStringPart(b []byte) error
	OnNull() error
}

// ReplyStatus carries the non-fatal outcomes a reply can have: a server
// error (simple or blob form) or a null. The caller inspects it after
// parsing.
type ReplyStatus struct {
	Kind    ErrorKind
	Message string
	Null    bool
}

// ErrorOrNil returns the server error carried by the reply, if any.
func (s *ReplyStatus) ErrorOrNil() error {
	if s.Kind == ErrorNone {
		return nil
	}

	return &ServerError{Kind: s.Kind, Message: s.Message}
}

// BaseSink is the default sink behaviour: error replies and nulls are
// recorded as status, every other token is a sink mismatch.
type BaseSink struct {
	status ReplyStatus
}

func (s *BaseSink) Status() *ReplyStatus {
	return &s.status
}

func (s *BaseSink) OnSimpleError(b []byte) error {
	s.status.Kind = ErrorSimple
	s.status.Message = string(b)
	return nil
}

func (s *BaseSink) OnBlobError(b []byte) error {
	s.status.Kind = ErrorBlob
	s.status.Message = string(b)
	return nil
}

func (s *BaseSink) OnNull() error {
	s.status.Null = true
	return nil
}

func (s *BaseSink) SelectArray(n int) error     { return mismatch("SelectArray") }
func (s *BaseSink) SelectPush(n int) error      { return mismatch("SelectPush") }
func (s *BaseSink) SelectSet(n int) error       { return mismatch("SelectSet") }
func (s *BaseSink) SelectMap(n int) error       { return mismatch("SelectMap") }
func (s *BaseSink) SelectAttribute(n int) error { return mismatch("SelectAttribute") }

func (s *BaseSink) OnSimpleString(b []byte) error       { return mismatch("OnSimpleString") }
func (s *BaseSink) OnNumber(b []byte) error             { return mismatch("OnNumber") }
func (s *BaseSink) OnDouble(b []byte) error             { return mismatch("OnDouble") }
func (s *BaseSink) OnBool(b []byte) error               { return mismatch("OnBool") }
func (s *BaseSink) OnBigNumber(b []byte) error          { return mismatch("OnBigNumber") }
func (s *BaseSink) OnBlobString(b []byte) error         { return mismatch("OnBlobString") }
func (s *BaseSink) OnVerbatimString(b []byte) error     { return mismatch("OnVerbatimString") }
func (s *BaseSink) OnStreamedStringPart(b []byte) error { return mismatch("OnStreamedStringPart") }

func mismatch(callback string) error {
	return fmt.Errorf("%s: %w", callback, ErrSinkMismatch)
}
