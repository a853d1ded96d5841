package realtime

import (
	"context"
	"encoding/json"
	"sync"

	bport "spachat/internal/infrastructure/broker/port"
	"spachat/internal/infrastructure/metrics"
)

// Gateway bridges broker topics onto websocket connections. Each attached
// connection holds one broker subscription per topic it watches; frames are
// forwarded verbatim, except that a connection never receives events its
// own socket id originated (the sender already has the message from its
// request result).
type Gateway struct {
	broker bport.Broker

	mu    sync.Mutex
	conns map[string]*Connection                // socketID -> connection
	subs  map[string]map[string]bport.Subscription // socketID -> topic -> subscription
}

// NewGateway constructs an initialized Gateway.
func NewGateway(broker bport.Broker) *Gateway {
	return &Gateway{
		broker: broker,
		conns:  make(map[string]*Connection),
		subs:   make(map[string]map[string]bport.Subscription),
	}
}

// Attach registers a connection and starts its write loop.
func (g *Gateway) Attach(conn *Connection) {
	g.mu.Lock()
	g.conns[conn.SocketID] = conn
	g.subs[conn.SocketID] = make(map[string]bport.Subscription)
	g.mu.Unlock()

	conn.Start()
	metrics.SocketConnections.Inc()
}

// Detach closes every subscription held by the connection and forgets it.
func (g *Gateway) Detach(conn *Connection) {
	g.mu.Lock()
	subs, tracked := g.subs[conn.SocketID]
	delete(g.conns, conn.SocketID)
	delete(g.subs, conn.SocketID)
	g.mu.Unlock()

	if !tracked {
		return
	}
	for _, sub := range subs {
		_ = sub.Close()
	}
	metrics.SocketConnections.Dec()
}

// Subscribe opens a broker subscription for the connection on topic and
// forwards its events until the subscription ends. Subscribing twice to the
// same topic is a no-op.
func (g *Gateway) Subscribe(ctx context.Context, conn *Connection, topic string) error {
	g.mu.Lock()
	subs, tracked := g.subs[conn.SocketID]
	if !tracked {
		g.mu.Unlock()
		return nil
	}
	if _, dup := subs[topic]; dup {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	sub, err := g.broker.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	g.mu.Lock()
	subs, tracked = g.subs[conn.SocketID]
	if !tracked {
		g.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	subs[topic] = sub
	g.mu.Unlock()

	go g.forward(conn, topic, sub)
	return nil
}

// Unsubscribe drops the connection's subscription on topic, if any.
func (g *Gateway) Unsubscribe(conn *Connection, topic string) {
	g.mu.Lock()
	var sub bport.Subscription
	if subs, tracked := g.subs[conn.SocketID]; tracked {
		sub = subs[topic]
		delete(subs, topic)
	}
	g.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

// Close terminates all tracked connections.
func (g *Gateway) Close() {
	g.mu.Lock()
	conns := make([]*Connection, 0, len(g.conns))
	for _, conn := range g.conns {
		conns = append(conns, conn)
	}
	g.mu.Unlock()

	for _, conn := range conns {
		g.Detach(conn)
		conn.Close(1001, "gateway shutdown")
	}
}

// droppedFrame tells the client its topic stream ended on the transport
// side. The client must resubscribe and re-fetch; the gateway does not
// replay anything.
type droppedFrame struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

func (g *Gateway) forward(conn *Connection, topic string, sub bport.Subscription) {
	for evt := range sub.Events() {
		if originSocket(evt.Payload) == conn.SocketID {
			continue
		}
		if err := conn.Send(evt.Payload); err != nil {
			g.forget(conn, topic, sub)
			_ = sub.Close()
			return
		}
	}

	// Stream closed. If the topic is still tracked this was a transport
	// drop, not an Unsubscribe; tell the client.
	if g.forget(conn, topic, sub) {
		if payload, err := json.Marshal(droppedFrame{Type: "dropped", Topic: topic}); err == nil {
			_ = conn.Send(payload)
		}
	}
}

// forget removes the connection's map entry for sub, reporting whether it
// was still tracked. Unsubscribe and Detach remove entries themselves; in
// that case forget is a no-op and returns false.
func (g *Gateway) forget(conn *Connection, topic string, sub bport.Subscription) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if subs, tracked := g.subs[conn.SocketID]; tracked && subs[topic] == sub {
		delete(subs, topic)
		return true
	}
	return false
}

// originSocket extracts the socket_id field from an event envelope without
// binding the gateway to the full event shape.
func originSocket(payload []byte) string {
	var peek struct {
		SocketID string `json:"socket_id"`
	}
	if err := json.Unmarshal(payload, &peek); err != nil {
		return ""
	}
	return peek.SocketID
}
