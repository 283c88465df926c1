package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds a single request when ctx has no deadline.
const DefaultTimeout = 3 * time.Second

// RemoteError is an error reported by the server.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Client sends one request per connection.
type Client struct {
	socketPath string
	seq        atomic.Uint64
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Send delivers msg and waits for the response. MsgError responses are
// returned as *RemoteError.
func (c *Client) Send(ctx context.Context, msg Message) (Message, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return Message{}, fmt.Errorf("connect %s: %w", c.socketPath, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if msg.ID == "" {
		msg.ID = strconv.FormatUint(c.seq.Add(1), 10)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return Message{}, fmt.Errorf("send %s: %w", msg.Type, err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return Message{}, fmt.Errorf("read response: %w", err)
	}
	var resp Message
	if err := json.Unmarshal(line, &resp); err != nil {
		return Message{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Type == MsgError {
		var p ErrorPayload
		if err := resp.Decode(&p); err != nil {
			return resp, errors.New("server error")
		}
		return resp, &RemoteError{Message: p.Message}
	}
	return resp, nil
}

// Request builds and sends a message of type t with payload.
func (c *Client) Request(ctx context.Context, t MessageType, payload any) (Message, error) {
	msg, err := NewMessage(t, payload)
	if err != nil {
		return Message{}, err
	}
	return c.Send(ctx, msg)
}

// State asks for the current state.
func (c *Client) State(ctx context.Context) (StatePayload, error) {
	resp, err := c.Request(ctx, MsgState, nil)
	if err != nil {
		return StatePayload{}, err
	}
	var st StatePayload
	if err := resp.Decode(&st); err != nil {
		return StatePayload{}, err
	}
	return st, nil
}
