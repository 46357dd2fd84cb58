package transport_test

import (
	"context"
	"net"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/beacon/transport"
)

// servePayload listens on an ephemeral port, writes payload to the first
// connection, and leaves the connection open.
func servePayload(payload []byte) (net.Listener, string, int) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).To(Succeed())

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}

		if len(payload) > 0 {
			_, _ = conn.Write(payload)
		}
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	Expect(err).To(Succeed())

	port, err := strconv.Atoi(portStr)
	Expect(err).To(Succeed())

	return listener, host, port
}

var _ = Describe("Stream", func() {
	Describe("Dial", func() {
		It("connects to a listening server", func() {
			listener, host, port := servePayload(nil)
			defer listener.Close()

			stream, err := transport.Dial(context.Background(), transport.Options{
				Host: host,
				Port: port,
				Log:  zap.NewNop(),
			})
			Expect(err).To(Succeed())
			Expect(stream.Close()).To(Succeed())
		})

		It("surfaces connect failures", func() {
			// Grab a port and close it again so nothing listens there.
			listener, host, port := servePayload(nil)
			listener.Close()

			_, err := transport.Dial(context.Background(), transport.Options{
				Host:        host,
				Port:        port,
				DialTimeout: time.Second,
				Log:         zap.NewNop(),
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ReadLine", func() {
		It("returns the line including its terminator", func() {
			listener, host, port := servePayload([]byte("+OK\r\n:1\r\n"))
			defer listener.Close()

			stream, err := transport.Dial(context.Background(), transport.Options{
				Host: host, Port: port, Log: zap.NewNop(),
			})
			Expect(err).To(Succeed())
			defer stream.Close()

			line, err := stream.ReadLine()
			Expect(err).To(Succeed())
			Expect(string(line)).To(Equal("+OK\r\n"))

			line, err = stream.ReadLine()
			Expect(err).To(Succeed())
			Expect(string(line)).To(Equal(":1\r\n"))
		})
	})

	Describe("ReadExact", func() {
		It("returns exactly the requested bytes even across separators", func() {
			listener, host, port := servePayload([]byte("ab\r\ncd\r\n"))
			defer listener.Close()

			stream, err := transport.Dial(context.Background(), transport.Options{
				Host: host, Port: port, Log: zap.NewNop(),
			})
			Expect(err).To(Succeed())
			defer stream.Close()

			body, err := stream.ReadExact(6)
			Expect(err).To(Succeed())
			Expect(string(body)).To(Equal("ab\r\ncd"))
		})
	})

	Describe("Guard", func() {
		It("interrupts a blocked read when the context is cancelled", func() {
			listener, host, port := servePayload(nil)
			defer listener.Close()

			stream, err := transport.Dial(context.Background(), transport.Options{
				Host: host, Port: port, Log: zap.NewNop(),
			})
			Expect(err).To(Succeed())
			defer stream.Close()

			ctx, cancel := context.WithCancel(context.Background())
			release := stream.Guard(ctx)
			defer release()

			go func() {
				time.Sleep(50 * time.Millisecond)
				cancel()
			}()

			_, err = stream.ReadLine()
			Expect(err).To(HaveOccurred())
		})

		It("does not disturb reads once released", func() {
			listener, host, port := servePayload([]byte("+OK\r\n"))
			defer listener.Close()

			stream, err := transport.Dial(context.Background(), transport.Options{
				Host: host, Port: port, Log: zap.NewNop(),
			})
			Expect(err).To(Succeed())
			defer stream.Close()

			ctx, cancel := context.WithCancel(context.Background())
			release := stream.Guard(ctx)
			release()
			cancel()

			line, err := stream.ReadLine()
			Expect(err).To(Succeed())
			Expect(string(line)).To(Equal("+OK\r\n"))
		})
	})
})
