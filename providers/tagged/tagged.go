// Package tagged implements one concrete providers.Transport: numeric-tag
// JSON frames, NUL-delimited, over a persistent net.Conn (optionally
// TLS-wrapped). It deliberately bypasses net/rpc: the server can initiate
// calls back to the client (the write_file_by_key callback on the pull
// path), which net/rpc's strict client/server split has no room for, and a
// custom frame format makes that symmetric flow straightforward.
package tagged

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"bitbucket.org/sinbad/filestore-client/providers"
)

// frame is the single wire shape for every direction: a client→server call,
// a server→client reply, or a server→client inbound call (cast). Reply
// distinguishes the second case from the first/third, which share an ID
// space only when Reply is false and ID is nonzero (i.e. a call awaiting a
// response).
type frame struct {
	ID     uint64          `json:"id,omitempty"`
	Tag    providers.Tag   `json:"tag,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Reply  bool            `json:"reply,omitempty"`
}

type pendingCall struct {
	resp chan frame
}

// Transport is a providers.Transport over a persistent connection.
type Transport struct {
	conn   net.Conn
	writeM sync.Mutex
	reader *bufio.Reader

	nextID uint64

	pendingM sync.Mutex
	pending  map[uint64]*pendingCall

	handlersM sync.Mutex
	handlers  map[providers.Tag]providers.Handler

	closeOnce sync.Once
	closeErr  error
}

// New wraps an established connection (plain TCP or TLS-wrapped, per
// Dial in dial.go) and starts its read loop.
func New(conn net.Conn) *Transport {
	t := &Transport{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		pending:  make(map[uint64]*pendingCall),
		handlers: make(map[providers.Tag]providers.Handler),
	}
	go t.readLoop()
	return t
}

func (t *Transport) RegisterHandler(tag providers.Tag, handler providers.Handler) {
	t.handlersM.Lock()
	defer t.handlersM.Unlock()
	t.handlers[tag] = handler
}

func (t *Transport) Call(ctx context.Context, tag providers.Tag, req, resp interface{}) error {
	params, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request for tag %d: %w", tag, err)
	}

	id := atomic.AddUint64(&t.nextID, 1)
	call := &pendingCall{resp: make(chan frame, 1)}
	t.pendingM.Lock()
	t.pending[id] = call
	t.pendingM.Unlock()
	defer func() {
		t.pendingM.Lock()
		delete(t.pending, id)
		t.pendingM.Unlock()
	}()

	if err := t.send(frame{ID: id, Tag: tag, Params: params}); err != nil {
		return fmt.Errorf("send tag %d: %w", tag, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case reply := <-call.resp:
		if reply.Error != "" {
			return fmt.Errorf("server error on tag %d: %s", tag, reply.Error)
		}
		if resp == nil || len(reply.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(reply.Result, resp); err != nil {
			return fmt.Errorf("unmarshal response for tag %d: %w", tag, err)
		}
		return nil
	}
}

func (t *Transport) CallNoReply(ctx context.Context, tag providers.Tag, req interface{}) error {
	params, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request for tag %d: %w", tag, err)
	}
	if err := t.send(frame{Tag: tag, Params: params}); err != nil {
		return fmt.Errorf("send tag %d: %w", tag, err)
	}
	return nil
}

func (t *Transport) send(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	t.writeM.Lock()
	defer t.writeM.Unlock()
	if _, err := t.conn.Write(data); err != nil {
		return err
	}
	_, err = t.conn.Write([]byte{0})
	return err
}

// readLoop decodes NUL-delimited frames off the connection for the lifetime
// of the transport. Replies are routed to the waiting Call by ID; inbound
// calls are dispatched to their registered handler on a fresh goroutine so a
// slow handler (e.g. a Registry write) never stalls frame decoding for
// other in-flight transfers.
func (t *Transport) readLoop() {
	for {
		raw, err := t.reader.ReadBytes(0)
		if err != nil {
			t.failPending(err)
			return
		}
		raw = raw[:len(raw)-1]
		if len(raw) == 0 {
			continue
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}

		if f.Reply {
			t.pendingM.Lock()
			call, ok := t.pending[f.ID]
			t.pendingM.Unlock()
			if ok {
				call.resp <- f
			}
			continue
		}

		t.handlersM.Lock()
		handler, ok := t.handlers[f.Tag]
		t.handlersM.Unlock()
		if ok {
			go handler(f.Params)
		}
	}
}

func (t *Transport) failPending(err error) {
	t.pendingM.Lock()
	defer t.pendingM.Unlock()
	for id, call := range t.pending {
		call.resp <- frame{Error: err.Error()}
		delete(t.pending, id)
	}
}

func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
