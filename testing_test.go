package webpubsub

import (
	"context"

	"github.com/sio-contrib/webpubsub-adapter/adapter"
	"github.com/sio-contrib/webpubsub-adapter/internal/sync"
	jsonparser "github.com/sio-contrib/webpubsub-adapter/parser/json"
	"github.com/sio-contrib/webpubsub-adapter/parser/json/serializer/stdjson"
)

type serviceCall struct {
	Op           string // "add", "remove", "send"
	Group        string
	ConnectionID string
	Payload      string
	Filter       string
	ContentType  string
}

type testServiceClient struct {
	mu    sync.Mutex
	calls []serviceCall

	onAdd    func(group, connectionID string) error
	onRemove func(group, connectionID string) error
	onSend   func(payload []byte, opts SendToAllOptions) error
}

var _ ServiceClient = newTestServiceClient()

func newTestServiceClient() *testServiceClient {
	return &testServiceClient{}
}

func (c *testServiceClient) AddConnectionToGroup(ctx context.Context, group, connectionID string) error {
	c.record(serviceCall{Op: "add", Group: group, ConnectionID: connectionID})
	if c.onAdd != nil {
		return c.onAdd(group, connectionID)
	}
	return nil
}

func (c *testServiceClient) RemoveConnectionFromGroup(ctx context.Context, group, connectionID string) error {
	c.record(serviceCall{Op: "remove", Group: group, ConnectionID: connectionID})
	if c.onRemove != nil {
		return c.onRemove(group, connectionID)
	}
	return nil
}

func (c *testServiceClient) SendToAll(ctx context.Context, payload []byte, opts SendToAllOptions) error {
	c.record(serviceCall{Op: "send", Payload: string(payload), Filter: opts.Filter, ContentType: opts.ContentType})
	if c.onSend != nil {
		return c.onSend(payload, opts)
	}
	return nil
}

func (c *testServiceClient) record(call serviceCall) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

func (c *testServiceClient) Calls() []serviceCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	calls := make([]serviceCall, len(c.calls))
	copy(calls, c.calls)
	return calls
}

// testResolver maps every socket ID to a derived remote connection ID, the
// way the transport layer would.
type testResolver struct{}

func (testResolver) RemoteID(sid adapter.SocketID) (string, bool) {
	if sid == "" {
		return "", false
	}
	return "conn-" + string(sid), true
}

const testNamespace = "/chat"

func newTestAdapter(service ServiceClient) *wpsAdapter {
	creator := NewAdapterCreator(service, testResolver{}, nil)
	a := creator(testNamespace, adapter.NewTestSocketStore(), jsonparser.NewCreator(0, stdjson.New()))
	return a.(*wpsAdapter)
}
