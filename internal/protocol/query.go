package protocol

import (
	"net"
	"strconv"
	"time"
)

// statusRequest asks the server for its full status block plus the Health,
// ElapsedTime and RemainingTime per-player properties.
const statusRequest = `\status\\player_property\Health\player_property\ElapsedTime\player_property\RemainingTime\`

const (
	// DefaultPort is the conventional query port, one above the 7777 game port.
	DefaultPort = 7778

	// DefaultTimeout bounds the connect and each read when the caller does
	// not configure one.
	DefaultTimeout = 30 * time.Second

	// DefaultBufferSize fits any single datagram the server emits.
	DefaultBufferSize = 2048
)

// Client performs status queries. The zero value uses the package defaults;
// a Client carries no connection state, so one may be shared across
// goroutines and every Query call is fully independent.
type Client struct {
	// Timeout bounds the connect and each subsequent read.
	Timeout time.Duration

	// BufferSize is the per-read buffer for inbound datagrams.
	BufferSize uint16
}

// Query performs one request/response exchange with the server at host:port
// using the package defaults for timeout and buffer size.
func Query(host string, port int, timeout time.Duration) ([]byte, error) {
	c := Client{Timeout: timeout}
	return c.Query(host, port)
}

// Query sends the status request to host:port and collects response
// datagrams until the accumulated buffer ends with the terminator byte.
// The connection lives for exactly this one exchange and is closed on every
// exit path. The returned bytes are verbatim, terminator included.
func (c *Client) Query(host string, port int) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	size := int(c.BufferSize)
	if size == 0 {
		size = DefaultBufferSize
	}

	if port <= 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("udp", addr, timeout)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}
	if _, err := conn.Write([]byte(statusRequest)); err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	// The response may span several datagrams; boundaries carry no meaning,
	// only the concatenated stream does. Keep reading until it ends with the
	// terminator.
	var resp []byte
	buf := make([]byte, size)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, &IncompleteResponseError{Addr: addr, Received: len(resp), Err: err}
		}

		n, err := conn.Read(buf)
		if err != nil {
			return nil, &IncompleteResponseError{Addr: addr, Received: len(resp), Err: err}
		}
		if n == 0 {
			return nil, &IncompleteResponseError{Addr: addr, Received: len(resp)}
		}

		resp = append(resp, buf[:n]...)
		if resp[len(resp)-1] == Separator {
			return resp, nil
		}
	}
}
