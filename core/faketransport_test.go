package core_test

import (
	"context"
	"encoding/json"
	"sync"

	"bitbucket.org/sinbad/filestore-client/providers"
)

// recordedCall is one Call/CallNoReply invocation captured for assertions.
type recordedCall struct {
	Tag providers.Tag
	Req json.RawMessage
}

// fakeTransport is an in-memory providers.Transport stand-in: tests install
// a handler per tag and assert on the recorded call sequence, with no real
// network I/O.
type fakeTransport struct {
	mu       sync.Mutex
	calls    []recordedCall
	handlers map[providers.Tag]func(req json.RawMessage) (json.RawMessage, error)
	noReply  map[providers.Tag]func(req json.RawMessage)
	inbound  map[providers.Tag]providers.Handler
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handlers: make(map[providers.Tag]func(req json.RawMessage) (json.RawMessage, error)),
		noReply:  make(map[providers.Tag]func(req json.RawMessage)),
		inbound:  make(map[providers.Tag]providers.Handler),
	}
}

func (f *fakeTransport) on(tag providers.Tag, handler func(req json.RawMessage) (json.RawMessage, error)) {
	f.handlers[tag] = handler
}

func (f *fakeTransport) onNoReply(tag providers.Tag, handler func(req json.RawMessage)) {
	f.noReply[tag] = handler
}

func (f *fakeTransport) Call(ctx context.Context, tag providers.Tag, req, resp interface{}) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Tag: tag, Req: raw})
	f.mu.Unlock()

	handler, ok := f.handlers[tag]
	if !ok {
		return nil
	}
	result, err := handler(raw)
	if err != nil {
		return err
	}
	if resp != nil && len(result) > 0 {
		return json.Unmarshal(result, resp)
	}
	return nil
}

func (f *fakeTransport) CallNoReply(ctx context.Context, tag providers.Tag, req interface{}) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Tag: tag, Req: raw})
	f.mu.Unlock()

	if handler, ok := f.noReply[tag]; ok {
		handler(raw)
	}
	return nil
}

func (f *fakeTransport) RegisterHandler(tag providers.Tag, handler providers.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbound[tag] = handler
}

// deliver simulates the server invoking an inbound call, e.g. write_file_by_key.
func (f *fakeTransport) deliver(tag providers.Tag, payload interface{}) {
	raw, _ := json.Marshal(payload)
	f.mu.Lock()
	handler := f.inbound[tag]
	f.mu.Unlock()
	if handler != nil {
		handler(raw)
	}
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) tags() []providers.Tag {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]providers.Tag, len(f.calls))
	for i, c := range f.calls {
		tags[i] = c.Tag
	}
	return tags
}
