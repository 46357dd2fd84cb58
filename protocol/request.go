package protocol

import "strconv"

// Request is an outbound payload of one or more commands. Each method
// appends exactly one RESP array, so a request with several commands is a
// pipeline and the server answers with one reply per command, in order.
//
// The payload is owned by the request; pass it by reference to the write
// routine and parse one reply per appended command.
type Request struct {
	payload []byte
}

func NewRequest() *Request {
	return &Request{}
}

// Payload returns the accumulated wire bytes.
func (r *Request) Payload() []byte {
	return r.payload
}

// Reset discards the accumulated payload so the request can be reused.
func (r *Request) Reset() {
	r.payload = r.payload[:0]
}

// appendHeader writes an array header `*<n>\r\n`. n is the number of bulk
// items that follow.
func (r *Request) appendHeader(n int) {
	r.payload = append(r.payload, '*')
	r.payload = strconv.AppendInt(r.payload, int64(n), 10)
	r.payload = append(r.payload, '\r', '\n')
}

// appendBulk writes one bulk item `$<len>\r\n<bytes>\r\n`. len is the byte
// count of the item, never a textual width.
func (r *Request) appendBulk(item string) {
	r.payload = append(r.payload, '$')
	r.payload = strconv.AppendInt(r.payload, int64(len(item)), 10)
	r.payload = append(r.payload, '\r', '\n')
	r.payload = append(r.payload, item...)
	r.payload = append(r.payload, '\r', '\n')
}

// assemble appends one command array: the command name followed by its
// arguments, all bulk encoded.
func (r *Request) assemble(cmd string, args ...string) {
	r.appendHeader(1 + len(args))
	r.appendBulk(cmd)

	for _, arg := range args {
		r.appendBulk(arg)
	}
}

// Command appends an arbitrary command. The named methods below cover the
// common surface; Command is the escape hatch that keeps it extensible.
func (r *Request) Command(cmd string, args ...string) {
	r.assemble(cmd, args...)
}

// Ints renders integers in their decimal textual form, for the commands
// that take repeated numeric arguments.
func Ints(ns ...int) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, strconv.Itoa(n))
	}

	return out
}

// Pair is a field/value argument pair. Pairs are emitted in the order they
// arrive; no canonicalisation.
type Pair struct {
	Field string
	Value string
}

// Z is a scored sorted set member.
type Z struct {
	Score  int64
	Member string
}

// Bound is an optional upper limit for score range queries. The zero value
// is unbounded and serialises as +inf.
type Bound struct {
	set   bool
	value int64
}

// Score bounds a range query at the given score.
func Score(n int64) Bound {
	return Bound{set: true, value: n}
}

// Unbounded leaves the range open.
func Unbounded() Bound {
	return Bound{}
}

func (b Bound) String() string {
	if !b.set {
		return "+inf"
	}

	return strconv.FormatInt(b.value, 10)
}

func (r *Request) Hello(version string) { r.assemble("HELLO", version) }
func (r *Request) Quit()                { r.assemble("QUIT") }
func (r *Request) Ping()                { r.assemble("PING") }
func (r *Request) Auth(password string) { r.assemble("AUTH", password) }
func (r *Request) Multi()               { r.assemble("MULTI") }
func (r *Request) Exec()                { r.assemble("EXEC") }
func (r *Request) FlushAll()            { r.assemble("FLUSHALL") }
func (r *Request) BgSave()              { r.assemble("BGSAVE") }
func (r *Request) BgRewriteAOF()        { r.assemble("BGREWRITEAOF") }
func (r *Request) Role()                { r.assemble("ROLE") }

func (r *Request) Incr(key string)        { r.assemble("INCR", key) }
func (r *Request) Get(key string)         { r.assemble("GET", key) }
func (r *Request) Del(key string)         { r.assemble("DEL", key) }
func (r *Request) LPop(key string)        { r.assemble("LPOP", key) }
func (r *Request) LLen(key string)        { r.assemble("LLEN", key) }
func (r *Request) HKeys(key string)       { r.assemble("HKEYS", key) }
func (r *Request) HVals(key string)       { r.assemble("HVALS", key) }
func (r *Request) HLen(key string)        { r.assemble("HLEN", key) }
func (r *Request) HGetAll(key string)     { r.assemble("HGETALL", key) }
func (r *Request) Subscribe(key string)   { r.assemble("SUBSCRIBE", key) }
func (r *Request) Unsubscribe(key string) { r.assemble("UNSUBSCRIBE", key) }

// Set appends `SET key args...`. Extra arguments carry the command options,
// e.g. the value followed by EX and a TTL.
func (r *Request) Set(key string, args ...string) {
	r.assemble("SET", prepend(key, args)...)
}

func (r *Request) Append(key, value string) {
	r.assemble("APPEND", key, value)
}

func (r *Request) BitCount(key string, start, end int) {
	r.assemble("BITCOUNT", key, strconv.Itoa(start), strconv.Itoa(end))
}

func (r *Request) RPush(key string, values ...string) {
	r.assemble("RPUSH", prepend(key, values)...)
}

func (r *Request) LPush(key string, values ...string) {
	r.assemble("LPUSH", prepend(key, values)...)
}

func (r *Request) LRange(key string, min, max int) {
	r.assemble("LRANGE", key, strconv.Itoa(min), strconv.Itoa(max))
}

func (r *Request) LTrim(key string, min, max int) {
	r.assemble("LTRIM", key, strconv.Itoa(min), strconv.Itoa(max))
}

func (r *Request) Expire(key string, seconds int) {
	r.assemble("EXPIRE", key, strconv.Itoa(seconds))
}

// HSet appends `HSET key field value ...`. fieldValues alternates fields
// and values.
func (r *Request) HSet(key string, fieldValues ...string) {
	r.assemble("HSET", prepend(key, fieldValues)...)
}

// HSetPairs is the pair form of HSet.
func (r *Request) HSetPairs(key string, pairs ...Pair) {
	args := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		args = append(args, p.Field, p.Value)
	}

	r.HSet(key, args...)
}

func (r *Request) HGet(key, field string) {
	r.assemble("HGET", key, field)
}

func (r *Request) HMGet(key string, fields ...string) {
	r.assemble("HMGET", prepend(key, fields)...)
}

func (r *Request) HIncrBy(key, field string, by int64) {
	r.assemble("HINCRBY", key, field, strconv.FormatInt(by, 10))
}

func (r *Request) ZAdd(key string, score int64, member string) {
	r.assemble("ZADD", key, strconv.FormatInt(score, 10), member)
}

// ZAddMulti appends one ZADD carrying every member. Members are emitted in
// the order they arrive.
func (r *Request) ZAddMulti(key string, members ...Z) {
	args := make([]string, 0, 2*len(members))
	for _, m := range members {
		args = append(args, strconv.FormatInt(m.Score, 10), m.Member)
	}

	r.assemble("ZADD", prepend(key, args)...)
}

func (r *Request) ZRange(key string, min, max int) {
	r.assemble("ZRANGE", key, strconv.Itoa(min), strconv.Itoa(max))
}

func (r *Request) ZRangeByScore(key string, min int64, max Bound) {
	r.assemble("ZRANGEBYSCORE", key, strconv.FormatInt(min, 10), max.String())
}

func (r *Request) ZRemRangeByScore(key string, score int64) {
	s := strconv.FormatInt(score, 10)
	r.assemble("ZREMRANGEBYSCORE", key, s, s)
}

func (r *Request) PSubscribe(patterns ...string) {
	r.assemble("PSUBSCRIBE", patterns...)
}

func (r *Request) Publish(key, message string) {
	r.assemble("PUBLISH", key, message)
}

// Sentinel appends `SENTINEL subcommand name`, e.g.
// `SENTINEL get-master-addr-by-name mymaster`.
func (r *Request) Sentinel(subcommand, name string) {
	r.assemble("SENTINEL", subcommand, name)
}

func prepend(head string, tail []string) []string {
	return append([]string{head}, tail...)
}
