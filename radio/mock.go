package radio

import "sync"

// bufferToken is the single-use RxToken/TxToken backing Mock: Consume
// returns the held buffer once and reports an error on any further
// call, enforcing single-use the same way the engine's forwarding
// buffers are consumed exactly once.
type bufferToken struct {
	mutex  sync.Mutex
	buf    []byte
	rx     bool
	onSend func([]byte)
	used   bool
}

func (t *bufferToken) Consume() ([]byte, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.used {
		return nil, errTokenAlreadyConsumed
	}
	t.used = true
	return t.buf, nil
}

func (t *bufferToken) consumeTx(frame []byte) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.used {
		return errTokenAlreadyConsumed
	}
	t.used = true
	if t.onSend != nil {
		t.onSend(append([]byte(nil), frame...))
	}
	return nil
}

// txToken adapts bufferToken's rx-less Consume(frame) shape for the
// TxToken interface (RxToken.Consume takes no argument; TxToken.Consume
// takes the frame to send).
type txToken struct{ *bufferToken }

func (t txToken) Consume(frame []byte) error { return t.consumeTx(frame) }

var errTokenAlreadyConsumed = &tokenError{"radio: token already consumed"}

type tokenError struct{ msg string }

func (e *tokenError) Error() string { return e.msg }

// Mock is an in-memory Device for tests: Inject queues a frame as if
// received over the air, and every transmitted frame is recorded for
// assertions, in place of a live peripheral.
type Mock struct {
	mutex    sync.Mutex
	inbox    [][]byte
	sent     [][]byte
	caps     Capabilities
	canTx    bool
}

// NewMock builds a Mock Device reporting caps from Capabilities().
func NewMock(caps Capabilities) *Mock {
	return &Mock{caps: caps, canTx: true}
}

// Inject enqueues frame as the next value Receive will hand out.
func (m *Mock) Inject(frame []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.inbox = append(m.inbox, append([]byte(nil), frame...))
}

// SetCanTx controls whether Transmit grants a TxToken, simulating a
// medium that is momentarily busy.
func (m *Mock) SetCanTx(can bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.canTx = can
}

// Sent returns every frame handed to a TxToken's Consume so far.
func (m *Mock) Sent() [][]byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([][]byte(nil), m.sent...)
}

func (m *Mock) Receive(now int64) (RxToken, TxToken, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.inbox) == 0 {
		return nil, nil, false
	}
	frame := m.inbox[0]
	m.inbox = m.inbox[1:]

	rx := &bufferToken{buf: frame, rx: true}
	tx := &bufferToken{onSend: m.record}
	return rx, txToken{tx}, true
}

func (m *Mock) Transmit(now int64) (TxToken, bool) {
	m.mutex.Lock()
	canTx := m.canTx
	m.mutex.Unlock()

	if !canTx {
		return nil, false
	}
	return txToken{&bufferToken{onSend: m.record}}, true
}

func (m *Mock) record(frame []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sent = append(m.sent, frame)
}

func (m *Mock) Capabilities() Capabilities { return m.caps }
