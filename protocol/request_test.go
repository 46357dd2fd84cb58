package protocol_test

import (
	"bytes"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/beacon/protocol"
)

var _ = Describe("Request", func() {
	It("assembles a bare command", func() {
		req := protocol.NewRequest()
		req.Ping()
		Expect(string(req.Payload())).To(Equal("*1\r\n$4\r\nPING\r\n"))
	})

	It("assembles a command with a key", func() {
		req := protocol.NewRequest()
		req.Get("foo")
		Expect(string(req.Payload())).To(Equal("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	})

	It("sizes the header from the argument count", func() {
		req := protocol.NewRequest()
		req.Set("key", "value")
		Expect(string(req.Payload())).To(Equal("*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n"))
	})

	It("sizes bulk items from their byte length", func() {
		req := protocol.NewRequest()
		req.Set("s", "a\r\nb")
		Expect(string(req.Payload())).To(Equal("*3\r\n$3\r\nSET\r\n$1\r\ns\r\n$4\r\na\r\nb\r\n"))
	})

	It("accepts an empty key", func() {
		req := protocol.NewRequest()
		req.Get("")
		Expect(string(req.Payload())).To(Equal("*2\r\n$3\r\nGET\r\n$0\r\n\r\n"))
	})

	It("concatenates pipelined commands without separator", func() {
		req := protocol.NewRequest()
		req.Ping()
		req.Quit()
		Expect(string(req.Payload())).To(Equal("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nQUIT\r\n"))
	})

	It("appends independently of what the payload already holds", func() {
		one := protocol.NewRequest()
		one.FlushAll()
		one.Incr("n")

		two := protocol.NewRequest()
		two.FlushAll()
		alone := protocol.NewRequest()
		alone.Incr("n")

		Expect(one.Payload()).To(Equal(append(append([]byte{}, two.Payload()...), alone.Payload()...)))
	})

	It("flattens repeated arguments", func() {
		req := protocol.NewRequest()
		req.RPush("a", protocol.Ints(1, 2, 3)...)
		Expect(string(req.Payload())).To(Equal(
			"*5\r\n$5\r\nRPUSH\r\n$1\r\na\r\n$1\r\n1\r\n$1\r\n2\r\n$1\r\n3\r\n"))
	})

	It("flattens field/value pairs in arrival order", func() {
		req := protocol.NewRequest()
		req.HSetPairs("h", protocol.Pair{Field: "b", Value: "2"}, protocol.Pair{Field: "a", Value: "1"})
		Expect(string(req.Payload())).To(Equal(
			"*6\r\n$4\r\nHSET\r\n$1\r\nh\r\n$1\r\nb\r\n$1\r\n2\r\n$1\r\na\r\n$1\r\n1\r\n"))
	})

	It("flattens scored members", func() {
		req := protocol.NewRequest()
		req.ZAddMulti("z", protocol.Z{Score: 1, Member: "a"}, protocol.Z{Score: 2, Member: "b"})
		Expect(string(req.Payload())).To(Equal(
			"*6\r\n$4\r\nZADD\r\n$1\r\nz\r\n$1\r\n1\r\n$1\r\na\r\n$1\r\n2\r\n$1\r\nb\r\n"))
	})

	Describe("HKEYS", func() {
		It("emits exactly the command and the key", func() {
			req := protocol.NewRequest()
			req.HKeys("h")
			Expect(string(req.Payload())).To(Equal("*2\r\n$5\r\nHKEYS\r\n$1\r\nh\r\n"))
		})
	})

	Describe("ZRANGEBYSCORE", func() {
		It("spells an unbounded max as +inf", func() {
			req := protocol.NewRequest()
			req.ZRangeByScore("z", 0, protocol.Unbounded())
			Expect(string(req.Payload())).To(Equal(
				"*4\r\n$13\r\nZRANGEBYSCORE\r\n$1\r\nz\r\n$1\r\n0\r\n$4\r\n+inf\r\n"))
		})

		It("keeps -1 as a real score", func() {
			req := protocol.NewRequest()
			req.ZRangeByScore("z", -5, protocol.Score(-1))
			Expect(string(req.Payload())).To(Equal(
				"*4\r\n$13\r\nZRANGEBYSCORE\r\n$1\r\nz\r\n$2\r\n-5\r\n$2\r\n-1\r\n"))
		})
	})

	Describe("ZREMRANGEBYSCORE", func() {
		It("repeats the score for both bounds", func() {
			req := protocol.NewRequest()
			req.ZRemRangeByScore("z", 7)
			Expect(string(req.Payload())).To(Equal(
				"*4\r\n$16\r\nZREMRANGEBYSCORE\r\n$1\r\nz\r\n$1\r\n7\r\n$1\r\n7\r\n"))
		})
	})

	It("resets to an empty payload", func() {
		req := protocol.NewRequest()
		req.Ping()
		req.Reset()
		Expect(req.Payload()).To(BeEmpty())

		req.Quit()
		Expect(string(req.Payload())).To(Equal("*1\r\n$4\r\nQUIT\r\n"))
	})

	Describe("round trip", func() {
		It("parses back every argument it serialised", func() {
			args := []string{"one", "", "tw\r\no", "three"}

			req := protocol.NewRequest()
			req.RPush("key", args...)

			sink := &protocol.ArraySink{}
			Expect(protocol.Parse(protocol.NewReader(bytes.NewReader(req.Payload())), sink)).To(Succeed())

			Expect(sink.Result[0]).To(Equal("RPUSH"))
			Expect(sink.Result[1]).To(Equal("key"))
			Expect(sink.Result[2:]).To(Equal(args))
		})
	})
})
