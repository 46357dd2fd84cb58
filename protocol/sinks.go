package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// IgnoreSink accepts every token and discards it. Use it to skip replies
// whose result is uninteresting, e.g. HELLO or bookkeeping commands.
type IgnoreSink struct {
	BaseSink
}

func (s *IgnoreSink) SelectArray(n int) error     { return nil }
func (s *IgnoreSink) SelectPush(n int) error      { return nil }
func (s *IgnoreSink) SelectSet(n int) error       { return nil }
func (s *IgnoreSink) SelectMap(n int) error       { return nil }
func (s *IgnoreSink) SelectAttribute(n int) error { return nil }

func (s *IgnoreSink) OnSimpleString(b []byte) error       { return nil }
func (s *IgnoreSink) OnNumber(b []byte) error             { return nil }
func (s *IgnoreSink) OnDouble(b []byte) error             { return nil }
func (s *IgnoreSink) OnBool(b []byte) error               { return nil }
func (s *IgnoreSink) OnBigNumber(b []byte) error          { return nil }
func (s *IgnoreSink) OnBlobString(b []byte) error         { return nil }
func (s *IgnoreSink) OnVerbatimString(b []byte) error     { return nil }
func (s *IgnoreSink) OnStreamedStringPart(b []byte) error { return nil }

// NumberSink absorbs a single number reply.
type NumberSink struct {
	BaseSink
	Result int64
}

func (s *NumberSink) OnNumber(b []byte) error {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("Failed to parse number reply '%s': %w", string(b), err)
	}

	s.Result = n
	return nil
}

// SimpleStringSink absorbs a single simple string reply, e.g. +OK.
type SimpleStringSink struct {
	BaseSink
	Result string
}

func (s *SimpleStringSink) OnSimpleString(b []byte) error {
	s.Result = string(b)
	return nil
}

// BlobStringSink absorbs a single blob string reply.
type BlobStringSink struct {
	BaseSink
	Result string
}

func (s *BlobStringSink) OnBlobString(b []byte) error {
	s.Result = string(b)
	return nil
}

// StringSink absorbs any of the string reply forms.
type StringSink struct {
	BaseSink
	Result string
}

func (s *StringSink) OnSimpleString(b []byte) error   { s.Result = string(b); return nil }
func (s *StringSink) OnBlobString(b []byte) error     { s.Result = string(b); return nil }
func (s *StringSink) OnVerbatimString(b []byte) error { s.Result = string(b); return nil }

// VerbatimStringSink absorbs a single verbatim string reply. The result
// keeps the three byte format prefix and colon, e.g. "txt:".
type VerbatimStringSink struct {
	BaseSink
	Result string
}

func (s *VerbatimStringSink) OnVerbatimString(b []byte) error {
	s.Result = string(b)
	return nil
}

// BoolSink absorbs a single boolean reply.
type BoolSink struct {
	BaseSink
	Result bool
}

func (s *BoolSink) OnBool(b []byte) error {
	if len(b) != 1 || (b[0] != 't' && b[0] != 'f') {
		return fmt.Errorf("Boolean reply has the wrong body '%s'", string(b))
	}

	s.Result = b[0] == 't'
	return nil
}

// DoubleSink absorbs a single double reply. The result stays textual;
// converting to an IEEE double is left to the caller because of the inf
// and nan spellings.
type DoubleSink struct {
	BaseSink
	Result string
}

func (s *DoubleSink) OnDouble(b []byte) error {
	s.Result = string(b)
	return nil
}

// BigNumberSink absorbs a single big number reply as its textual digits.
type BigNumberSink struct {
	BaseSink
	Result string
}

func (s *BigNumberSink) OnBigNumber(b []byte) error {
	s.Result = string(b)
	return nil
}

// StreamedStringSink concatenates the parts of a streamed string in
// arrival order.
type StreamedStringSink struct {
	BaseSink
	parts strings.Builder
}

func (s *StreamedStringSink) OnStreamedStringPart(b []byte) error {
	s.parts.Write(b)
	return nil
}

func (s *StreamedStringSink) Result() string {
	return s.parts.String()
}

// ArraySink flattens any aggregate reply into an ordered sequence of the
// textual form of its scalar leaves. For a map reply the sequence arrives
// as key0, val0, key1, val1, and so on.
type ArraySink struct {
	BaseSink
	Result []string
}

func (s *ArraySink) SelectArray(n int) error     { return nil }
func (s *ArraySink) SelectPush(n int) error      { return nil }
func (s *ArraySink) SelectSet(n int) error       { return nil }
func (s *ArraySink) SelectMap(n int) error       { return nil }
func (s *ArraySink) SelectAttribute(n int) error { return nil }

func (s *ArraySink) OnSimpleString(b []byte) error       { s.add(b); return nil }
func (s *ArraySink) OnNumber(b []byte) error             { s.add(b); return nil }
func (s *ArraySink) OnDouble(b []byte) error             { s.add(b); return nil }
func (s *ArraySink) OnBool(b []byte) error               { s.add(b); return nil }
func (s *ArraySink) OnBigNumber(b []byte) error          { s.add(b); return nil }
func (s *ArraySink) OnBlobString(b []byte) error         { s.add(b); return nil }
func (s *ArraySink) OnVerbatimString(b []byte) error     { s.add(b); return nil }
func (s *ArraySink) OnStreamedStringPart(b []byte) error { s.add(b); return nil }

func (s *ArraySink) add(b []byte) {
	s.Result = append(s.Result, string(b))
}

// Ints converts the collected elements to integers.
func (s *ArraySink) Ints() ([]int64, error) {
	out := make([]int64, 0, len(s.Result))

	for _, el := range s.Result {
		n, err := strconv.ParseInt(el, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("Failed to parse array element '%s': %w", el, err)
		}

		out = append(out, n)
	}

	return out, nil
}

// FlatMapSink reads a map reply as a flat key/value sequence.
type FlatMapSink = ArraySink

// FlatSetSink reads a set reply as an ordered sequence.
type FlatSetSink = ArraySink

// SetSink collects the members of a set reply into a unique key container.
type SetSink struct {
	BaseSink
	Result map[string]struct{}
}

func (s *SetSink) SelectSet(n int) error   { return nil }
func (s *SetSink) SelectArray(n int) error { return nil }

func (s *SetSink) OnSimpleString(b []byte) error { s.insert(b); return nil }
func (s *SetSink) OnBlobString(b []byte) error   { s.insert(b); return nil }

func (s *SetSink) insert(b []byte) {
	if s.Result == nil {
		s.Result = make(map[string]struct{})
	}

	s.Result[string(b)] = struct{}{}
}

// Contains reports set membership.
func (s *SetSink) Contains(member string) bool {
	_, ok := s.Result[member]
	return ok
}

var (
	_ Sink = (*IgnoreSink)(nil)
	_ Sink = (*NumberSink)(nil)
	_ Sink = (*SimpleStringSink)(nil)
	_ Sink = (*BlobStringSink)(nil)
	_ Sink = (*StringSink)(nil)
	_ Sink = (*VerbatimStringSink)(nil)
	_ Sink = (*BoolSink)(nil)
	_ Sink = (*DoubleSink)(nil)
	_ Sink = (*BigNumberSink)(nil)
	_ Sink = (*StreamedStringSink)(nil)
	_ Sink = (*ArraySink)(nil)
	_ Sink = (*SetSink)(nil)
)
