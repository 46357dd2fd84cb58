package protocol

// This package implements serialising requests to, and parsing replies from,
// servers that speak the Redis serialisation protocol (RESP), versions 2
// and 3.
//
// - `Request` - One or more commands assembled into a single outbound
//               payload. Writing a request with several commands is a
//               pipeline; the server answers with one reply per command,
//               in order.
// - `Sink`    - The typed callback surface a reply is parsed into. The
//               caller picks a sink matching the reply shape it expects.
// - `Parse`   - Reads exactly one framed reply from a Source and dispatches
//               its tokens into a Sink.
//
// === General syntax
//
// - header lines are `\r\n` delimited
// - the first byte of a header line selects the token kind
// - blobs are length prefixed, so their bodies may contain `\r\n`
//
// Scalar tokens
//
//   ```
//     +OK\r\n                    simple string
//     -ERR unknown\r\n           simple error
//     :42\r\n                    number (signed 64 bit)
//     ,1.23\r\n                  double (textual, incl. inf/-inf/nan)
//     #t\r\n                     boolean (t or f)
//     (3492890328409238509\r\n   big number (textual)
//     $5\r\nhello\r\n            blob string
//     !8\r\nERR oops\r\n         blob error
//     =15\r\ntxt:Some string\r\n verbatim string
//     _\r\n                      null
//   ```
//
// Aggregate tokens declare a child count and are followed by that many
// replies. A map's declared size k means 2k children in key/value order.
// An attribute is a map that decorates the following reply.
//
//   ```
//     *2\r\n   array      ~2\r\n   set      >2\r\n   push
//     %2\r\n   map        |1\r\n   attribute
//   ```
//
// A blob whose length is declared as `?` is a streamed string. Its body
// arrives as a series of `;<len>\r\n<bytes>\r\n` parts, terminated by a
// zero length part `;0\r\n`.
//
// Null replies also appear in the RESP2 forms `$-1\r\n` and `*-1\r\n`.
//
// === Requests
//
// Every command is one array of blob items:
//
//   ```
//     *3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n
//   ```
//
// Commands concatenate into the request payload without separator. Inline
// commands (legacy RESP1) are not supported.
