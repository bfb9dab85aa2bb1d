package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/homesim-core/internal/device"
	"github.com/nerrad567/homesim-core/internal/dispatch"
	"github.com/nerrad567/homesim-core/internal/infrastructure/config"
	"github.com/nerrad567/homesim-core/internal/infrastructure/logging"
	"github.com/nerrad567/homesim-core/internal/protocol"
)

const (
	defaultSendBuffer    = 256
	defaultMaxMessage    = 8192
	defaultPingInterval  = 30 * time.Second
	defaultPongTimeout   = 10 * time.Second
	stateChangedMessage  = "State changed"
	cycleAdvancedMessage = "Cycle advanced"
)

// HubObserver is told about connection churn and dropped messages.
// metrics.Registry implements it.
type HubObserver interface {
	ClientConnected()
	ClientDisconnected()
	BroadcastDropped()
}

type noopHubObserver struct{}

func (noopHubObserver) ClientConnected()    {}
func (noopHubObserver) ClientDisconnected() {}
func (noopHubObserver) BroadcastDropped()   {}

// Hub owns every websocket connection on the control channel.
//
// Each connection gets the full snapshot on connect, a direct reply to
// every inbound message, and (when broadcast is enabled) a deviceState
// event for every change made by someone else. Countdown ticks from the
// cycle timer reach every connection.
type Hub struct {
	cfg        config.WebSocketConfig
	logger     *logging.Logger
	registry   *device.Registry
	dispatcher *dispatch.Dispatcher
	observer   HubObserver
	nowFunc    func() time.Time

	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient is one open control connection.
type WSClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// sendMu orders writes into send and guards seen/closed. seen holds
	// the newest change Seq delivered per device ID, so an older state
	// is never sent after a newer one.
	sendMu sync.Mutex
	seen   map[string]uint64
	closed bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a hub dispatching through d against reg.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger, reg *device.Registry, d *dispatch.Dispatcher) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	return &Hub{
		cfg:        cfg,
		logger:     logger,
		registry:   reg,
		dispatcher: d,
		observer:   noopHubObserver{},
		nowFunc:    time.Now,
		clients:    make(map[*WSClient]struct{}),
	}
}

// SetObserver installs a connection observer.
func (h *Hub) SetObserver(o HubObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observer = o
}

func (h *Hub) getObserver() HubObserver {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.observer
}

// Run blocks until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Attach registers a client and queues its initial snapshot. The client
// is visible to broadcasts before the snapshot is taken, but cannot
// receive one until the snapshot is queued, so nothing is missed and
// nothing precedes it.
func (h *Hub) Attach(client *WSClient) {
	client.sendMu.Lock()
	defer client.sendMu.Unlock()

	h.mu.Lock()
	h.clients[client] = struct{}{}
	observer := h.observer
	h.mu.Unlock()

	observer.ClientConnected()
	h.queueSnapshotLocked(client)
	h.logger.Debug("websocket client connected", "client_id", client.id, "clients", h.ClientCount())
}

// Detach removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Detach(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	observer := h.observer
	h.mu.Unlock()

	if !existed {
		return
	}

	client.sendMu.Lock()
	client.closed = true
	close(client.send)
	client.sendMu.Unlock()

	observer.ClientDisconnected()
	h.logger.Debug("websocket client disconnected", "client_id", client.id, "clients", h.ClientCount())
}

// queueSnapshotLocked sends the full device list. Caller holds client.sendMu.
func (h *Hub) queueSnapshotLocked(client *WSClient) {
	entries := h.registry.Snapshot()
	for _, e := range entries {
		client.seen[e.ID] = e.Seq
	}
	data, err := protocol.InitialState(entries, h.nowFunc()).Encode()
	if err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
		return
	}
	client.enqueueLocked(data)
}

// Name identifies the hub as a state feed sink.
func (h *Hub) Name() string { return "websocket" }

// HandleChange broadcasts a committed change. Command changes go to
// every connection except the origin, and only when broadcast is
// enabled. Timer changes go to everyone.
func (h *Hub) HandleChange(_ context.Context, change device.Change) error {
	timer := change.Cause.Source == device.SourceTimer
	if !timer && !h.cfg.Broadcast {
		return nil
	}

	message := stateChangedMessage
	if timer {
		message = cycleAdvancedMessage
	}
	data, err := protocol.DeviceState(message, change.Entry).Encode()
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		if timer || c.id != change.Cause.Origin {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.deliverState(change.Entry.ID, change.Entry.Seq, data)
	}
	return nil
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	// Closing the socket ends readPump, which detaches the client.
	for _, c := range clients {
		c.conn.Close() //nolint:errcheck // best-effort shutdown
	}
}

// handleWebSocket upgrades the request and starts the client pumps.
func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
		seen: make(map[string]uint64),
	}

	h.Attach(client)

	go client.writePump()
	go client.readPump()
}

// ID returns the connection identifier carried on its changes.
func (c *WSClient) ID() string { return c.id }

// enqueueLocked queues data without blocking. Caller holds sendMu.
func (c *WSClient) enqueueLocked(data []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.hub.getObserver().BroadcastDropped()
		c.hub.logger.Warn("websocket send buffer full, message dropped", "client_id", c.id)
		return false
	}
}

// deliverState queues a broadcast unless the client already has a newer
// state for that device.
func (c *WSClient) deliverState(deviceID string, seq uint64, data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if seq <= c.seen[deviceID] {
		return
	}
	if c.enqueueLocked(data) {
		c.seen[deviceID] = seq
	}
}

// reply queues a direct response. A reply is always sent; if a newer
// broadcast for the same device overtook it, the current state follows
// so the client ends on the newest value.
func (c *WSClient) reply(resp protocol.Response) {
	data, err := resp.Encode()
	if err != nil {
		c.hub.logger.Error("failed to encode response", "error", err)
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.enqueueLocked(data) || resp.Entry == nil {
		return
	}
	e := resp.Entry
	if e.Seq >= c.seen[e.ID] {
		c.seen[e.ID] = e.Seq
		return
	}

	current, err := c.hub.registry.Get(e.Kind, e.Index)
	if err != nil {
		return
	}
	if fresh, err := protocol.DeviceState(stateChangedMessage, current).Encode(); err == nil && c.enqueueLocked(fresh) {
		c.seen[e.ID] = current.Seq
	}
}

func (c *WSClient) resendSnapshot() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.hub.queueSnapshotLocked(c)
}

func (c *WSClient) timeouts() (pingInterval, pongWait time.Duration) {
	pingInterval = time.Duration(c.hub.cfg.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	pongWait = time.Duration(c.hub.cfg.PongTimeout) * time.Second
	if pongWait <= 0 {
		pongWait = defaultPongTimeout
	}
	return pingInterval, pongWait
}

// readPump reads and handles inbound messages in order until the
// connection closes.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Detach(c)
		c.conn.Close() //nolint:errcheck // already closing
	}()

	maxSize := c.hub.cfg.MaxMessageSize
	if maxSize <= 0 {
		maxSize = defaultMaxMessage
	}
	c.conn.SetReadLimit(int64(maxSize))

	pingInterval, pongWait := c.timeouts()
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "client_id", c.id, "error", err)
			}
			return
		}
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

// writePump writes queued messages and keepalive pings.
func (c *WSClient) writePump() {
	pingInterval, pongWait := c.timeouts()
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck // already closing
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes and dispatches one inbound frame.
func (c *WSClient) handleMessage(data []byte) {
	if protocol.IsSnapshotRequest(data) {
		c.resendSnapshot()
		return
	}

	cmd, err := protocol.Decode(data)
	if err != nil {
		c.hub.logger.Debug("rejected websocket message", "client_id", c.id, "error", err)
		c.reply(protocol.Failure(decodeMessage(err)))
		return
	}

	c.reply(c.hub.dispatcher.Dispatch(c.id, cmd))
}

// decodeMessage strips the package prefix from decode errors so clients
// see "unknown action: blink" rather than "protocol: unknown action: blink".
func decodeMessage(err error) string {
	return strings.TrimPrefix(err.Error(), "protocol: ")
}
