package chathub

import (
	"context"
	"errors"

	"messenger/backend/internal/metrics"
	"messenger/backend/internal/models"

	"github.com/rs/zerolog"
)

// DropHandler observes inbound frames that were not relayed.
type DropHandler func(userID string, err error)

type connection struct {
	client Client
	peer   string // "" коли дзвінка немає
}

// ManagerService is the signaling relay. A single goroutine (Run) owns the
// registry; everything else talks to it over channels.
type ManagerService struct {
	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan Inbound

	queries chan func()
	done    chan struct{}

	conns map[string]*connection
	// Replaced connections still open on the client side; closed on unregister.
	stale map[Client]struct{}

	dropHandler DropHandler
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

func NewManagerService(log zerolog.Logger, m *metrics.Metrics) *ManagerService {
	if m == nil {
		m = metrics.Default()
	}
	return &ManagerService{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan Inbound),
		queries:      make(chan func()),
		done:         make(chan struct{}),
		conns:        make(map[string]*connection),
		stale:        make(map[Client]struct{}),
		log:          log.With().Str("component", "signaling").Logger(),
		metrics:      m,
	}
}

// SetDropHandler must be called before Run.
func (m *ManagerService) SetDropHandler(h DropHandler) {
	m.dropHandler = h
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Run processes registry changes and frames until ctx is cancelled.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)
	m.log.Info().Msg("signaling relay started")

	for {
		select {
		case c := <-m.RegisterCh:
			m.register(c)

		case c := <-m.UnregisterCh:
			m.unregister(c)

		case in := <-m.IncomingCh:
			if err := m.handleIncoming(in); err != nil {
				m.reportDrop(in.Client.GetUserID(), err)
			}

		case q := <-m.queries:
			q()

		case <-ctx.Done():
			m.shutdown()
			m.log.Info().Msg("signaling relay stopped")
			return
		}
	}
}

// Register hands c to the relay; false if the relay is stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Submit queues a raw frame from c; false if the relay is stopped.
func (m *ManagerService) Submit(c Client, data []byte) bool {
	select {
	case m.IncomingCh <- Inbound{Client: c, Data: data}:
		return true
	case <-m.done:
		return false
	}
}

func (m *ManagerService) register(c Client) {
	userID := c.GetUserID()

	if old, ok := m.conns[userID]; ok {
		if old.client == c {
			return
		}
		// Попереднє з'єднання не повідомляємо, але його дзвінок завершуємо.
		m.endCall(userID, old)
		m.stale[old.client] = struct{}{}
		m.log.Info().Str("user_id", userID).Msg("connection replaced")
	} else {
		m.metrics.RelayConnections.Inc()
	}

	m.conns[userID] = &connection{client: c}
	m.log.Debug().Str("user_id", userID).Msg("client registered")
}

func (m *ManagerService) unregister(c Client) {
	userID := c.GetUserID()

	if conn, ok := m.conns[userID]; ok && conn.client == c {
		m.endCall(userID, conn)
		delete(m.conns, userID)
		c.Close()
		m.metrics.RelayConnections.Dec()
		m.log.Debug().Str("user_id", userID).Msg("client unregistered")
		return
	}

	if _, ok := m.stale[c]; ok {
		delete(m.stale, c)
		c.Close()
	}
}

// endCall tells the live peer of conn that the call is over and resets both
// peer pointers.
func (m *ManagerService) endCall(userID string, conn *connection) {
	if conn.peer == "" {
		return
	}
	if peer, ok := m.conns[conn.peer]; ok && peer.peer == userID {
		if err := m.deliver(conn.peer, hangupFrame(userID)); err != nil {
			m.reportDrop(userID, err)
		}
		peer.peer = ""
	}
	conn.peer = ""
}

// unlink clears userID's peer pointer and the back-pointer of its peer.
func (m *ManagerService) unlink(userID string) {
	conn, ok := m.conns[userID]
	if !ok || conn.peer == "" {
		return
	}
	if peer, ok := m.conns[conn.peer]; ok && peer.peer == userID {
		peer.peer = ""
	}
	conn.peer = ""
}

func (m *ManagerService) handleIncoming(in Inbound) error {
	sender := in.Client.GetUserID()
	conn, ok := m.conns[sender]
	if !ok || conn.client != in.Client {
		return ErrStaleConnection
	}

	sig, err := ParseFrame(in.Data)
	if err != nil {
		return err
	}

	switch s := sig.(type) {
	case Offer:
		return m.handleOffer(sender, conn, s)
	case Answer:
		return m.relayToPeer(conn, models.Frame{Event: s.Event(), Payload: withSender(s.fields, sender)})
	case Ice:
		return m.relayToPeer(conn, models.Frame{Event: s.Event(), Payload: s.payload})
	case Hangup:
		return m.handleHangup(sender, conn, s)
	default:
		return ErrUnknownEvent
	}
}

func (m *ManagerService) handleOffer(sender string, conn *connection, s Offer) error {
	if s.TargetUserID == sender {
		return ErrSelfTarget
	}
	target, ok := m.conns[s.TargetUserID]
	if !ok {
		return ErrPeerOffline
	}

	// Старі вказівники мають зникнути, інакше симетрія порушиться.
	// Покинутий співрозмовник отримує call:hangup.
	if conn.peer != "" && conn.peer != s.TargetUserID {
		m.endCall(sender, conn)
	}
	if target.peer != "" && target.peer != sender {
		m.endCall(s.TargetUserID, target)
	}
	conn.peer = s.TargetUserID
	target.peer = sender

	return m.send(s.TargetUserID, models.Frame{Event: s.Event(), Payload: withSender(s.fields, sender)})
}

func (m *ManagerService) handleHangup(sender string, conn *connection, s Hangup) error {
	if conn.peer == "" {
		return ErrNoPeer
	}
	peerID := conn.peer
	var err error
	if _, ok := m.conns[peerID]; ok {
		err = m.send(peerID, models.Frame{Event: s.Event(), Payload: withSender(s.fields, sender)})
	}
	m.unlink(sender)
	return err
}

func (m *ManagerService) relayToPeer(conn *connection, f models.Frame) error {
	if conn.peer == "" {
		return ErrNoPeer
	}
	return m.send(conn.peer, f)
}

// send delivers f and counts it as relayed.
func (m *ManagerService) send(userID string, f models.Frame) error {
	if err := m.deliver(userID, f); err != nil {
		return err
	}
	m.metrics.RelayEvents.WithLabelValues(f.Event).Inc()
	return nil
}

// deliver never blocks the loop: a full buffer drops the frame.
func (m *ManagerService) deliver(userID string, f models.Frame) error {
	conn, ok := m.conns[userID]
	if !ok {
		return ErrPeerOffline
	}
	select {
	case conn.client.GetSendChannel() <- f:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (m *ManagerService) reportDrop(userID string, err error) {
	m.metrics.RelayDropped.WithLabelValues(dropReason(err)).Inc()
	m.log.Debug().Err(err).Str("user_id", userID).Msg("signaling frame dropped")
	if m.dropHandler != nil {
		m.dropHandler(userID, err)
	}
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedFrame):
		return "malformed"
	case errors.Is(err, ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, ErrStaleConnection):
		return "stale_connection"
	case errors.Is(err, ErrSelfTarget):
		return "self_target"
	case errors.Is(err, ErrPeerOffline):
		return "peer_offline"
	case errors.Is(err, ErrNoPeer):
		return "no_peer"
	case errors.Is(err, ErrSendBufferFull):
		return "buffer_full"
	default:
		return "other"
	}
}

func (m *ManagerService) shutdown() {
	for userID, conn := range m.conns {
		conn.client.Close()
		delete(m.conns, userID)
		m.metrics.RelayConnections.Dec()
	}
	for c := range m.stale {
		c.Close()
		delete(m.stale, c)
	}
}

// query runs fn on the loop goroutine. false if the relay is stopped.
func (m *ManagerService) query(fn func()) bool {
	finished := make(chan struct{})
	select {
	case m.queries <- func() { fn(); close(finished) }:
		<-finished
		return true
	case <-m.done:
		return false
	}
}

// IsOnline reports whether userID has a registered connection.
func (m *ManagerService) IsOnline(userID string) bool {
	var online bool
	m.query(func() { _, online = m.conns[userID] })
	return online
}

// PeerOf returns the user userID is currently signaling with ("" when idle).
func (m *ManagerService) PeerOf(userID string) (peer string, online bool) {
	m.query(func() {
		if conn, ok := m.conns[userID]; ok {
			peer, online = conn.peer, true
		}
	})
	return peer, online
}

// Count returns the number of registered users.
func (m *ManagerService) Count() int {
	var n int
	m.query(func() { n = len(m.conns) })
	return n
}
