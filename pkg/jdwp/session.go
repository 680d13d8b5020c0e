package jdwp

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/enovella/jdwp/pkg/logflags"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a Session. Transitions are monotone
// along Created -> Ready -> Closed.
type State int

const (
	StateCreated State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var handshakeMagic = []byte("JDWP-Handshake")

// Session is a JDWP connection to a Java virtual machine. Commands
// may be issued from multiple goroutines; replies are matched to
// their requests by packet id.
type Session struct {
	rwc io.ReadWriteCloser

	mu      sync.Mutex
	state   State
	nextID  uint32
	sizes   IDSizes
	writeq  [][]byte
	writing bool
	pending map[uint32]*pendingReply
	stopFns []func()

	closed chan struct{}

	log     *logrus.Entry
	wireLog *logrus.Entry
}

// pendingReply pairs an in-flight command with its eventual outcome.
// The channel is buffered so the reader loop never blocks on a
// completion; exactly one result is ever sent.
type pendingReply struct {
	ch chan pendingResult
}

type pendingResult struct {
	rdr *packetReader
	err error
}

// Open performs the JDWP handshake on rwc, negotiates ID sizes and
// returns a ready session. rwc must already be connected; transport
// establishment (and attach credentials) are the caller's problem.
// On error the stream is closed.
func Open(ctx context.Context, rwc io.ReadWriteCloser) (*Session, error) {
	s := &Session{
		rwc:     rwc,
		nextID:  1,
		pending: make(map[uint32]*pendingReply),
		closed:  make(chan struct{}),
		log:     logflags.SessionLogger(),
		wireLog: logflags.JDWPWireLogger(),
	}
	if err := s.handshake(); err != nil {
		rwc.Close()
		return nil, err
	}
	go s.readLoop()
	if err := s.negotiateIDSizes(ctx); err != nil {
		s.Close()
		return nil, err
	}
	s.mu.Lock()
	if s.state == StateCreated {
		s.state = StateReady
	}
	s.mu.Unlock()
	s.log.Debug("session ready")
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IDSizes returns the negotiated identifier widths.
func (s *Session) IDSizes() IDSizes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizes
}

// Closed returns a channel that is closed when the session has shut
// down, after all outstanding commands have been failed and all stop
// observers have run.
func (s *Session) Closed() <-chan struct{} { return s.closed }

// OnStop registers fn to be invoked when the session shuts down.
// Observers registered after teardown has begun are not invoked.
func (s *Session) OnStop(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		s.stopFns = append(s.stopFns, fn)
	}
}

// Close shuts the session down. It is idempotent; errors from closing
// the underlying stream are ignored.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	// Closing the stream unblocks the reader loop, which performs the
	// actual teardown.
	s.rwc.Close()
	<-s.closed
	return nil
}

func (s *Session) handshake() error {
	if _, err := s.rwc.Write(handshakeMagic); err != nil {
		return &TransportError{Op: "handshake", Err: err}
	}
	reply := make([]byte, len(handshakeMagic))
	if _, err := io.ReadFull(s.rwc, reply); err != nil {
		return &TransportError{Op: "handshake", Err: err}
	}
	if !bytes.Equal(reply, handshakeMagic) {
		return &ProtocolError{Reason: "Unexpected handshake reply"}
	}
	return nil
}

func (s *Session) negotiateIDSizes(ctx context.Context) error {
	r, err := s.execute(ctx, s.newCommand(cmdSetVirtualMachine, cmdVMIDSizes))
	if err != nil {
		return err
	}
	var widths [5]int32
	for i := range widths {
		if widths[i], err = r.readInt32(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.sizes = NewIDSizes(widths[0], widths[1], widths[2], widths[3], widths[4])
	s.mu.Unlock()
	return nil
}

func (s *Session) newCommand(set, cmd uint8) *commandBuilder {
	return newCommandBuilder(&s.sizes, set, cmd)
}

// execute frames b, queues it for writing and waits for the matching
// reply. The packet id is assigned under the queue lock so that id
// order matches wire order. Cancelling ctx abandons only this
// command; the reply, if it ever arrives, is dropped by the reader.
func (s *Session) execute(ctx context.Context, b *commandBuilder) (*packetReader, error) {
	buf := b.finalize()
	pr := &pendingReply{ch: make(chan pendingResult, 1)}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil, ErrConnClosed
	}
	id := s.nextID
	s.nextID++ // wraps at 2^32; collisions with still-pending ids are not guarded
	binary.BigEndian.PutUint32(buf[4:8], id)
	s.pending[id] = pr
	s.writeq = append(s.writeq, buf)
	kick := !s.writing
	if kick {
		s.writing = true
	}
	s.mu.Unlock()

	if kick {
		go s.drainWrites()
	}

	select {
	case res := <-pr.ch:
		return res.rdr, res.err
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

// drainWrites writes queued packets until the queue is empty. At most
// one drain runs at a time: execute only starts one when it finds
// writing unset. A failed write leaves the packet at the head; the
// reader loop observes the corresponding stream failure and tears the
// session down.
func (s *Session) drainWrites() {
	for {
		s.mu.Lock()
		if len(s.writeq) == 0 || s.state == StateClosed {
			s.writing = false
			s.mu.Unlock()
			return
		}
		buf := s.writeq[0]
		s.mu.Unlock()

		if _, err := s.rwc.Write(buf); err != nil {
			s.log.Debugf("write failed: %v", err)
			s.mu.Lock()
			s.writing = false
			s.mu.Unlock()
			return
		}
		if logflags.JDWPWire() {
			s.wireLog.Debugf("-> id=%d set=%d cmd=%d len=%d",
				binary.BigEndian.Uint32(buf[4:8]), buf[9], buf[10], len(buf))
		}

		s.mu.Lock()
		// teardown may have emptied the queue while the write was in
		// flight.
		if len(s.writeq) > 0 {
			s.writeq = s.writeq[1:]
		}
		s.mu.Unlock()
	}
}

func (s *Session) readLoop() {
	var fault error
	for {
		var hdr [headerSize]byte
		if _, err := io.ReadFull(s.rwc, hdr[:]); err != nil {
			fault = &TransportError{Op: "read", Err: err}
			break
		}
		length := binary.BigEndian.Uint32(hdr[0:4])
		if length < headerSize {
			fault = &ProtocolError{Reason: fmt.Sprintf("JDWP packet too small (%d bytes)", length)}
			break
		}
		if length > maxPacketSize {
			fault = &ProtocolError{Reason: fmt.Sprintf("JDWP packet too large (%d bytes)", length)}
			break
		}
		buf := make([]byte, length)
		copy(buf, hdr[:])
		if length > headerSize {
			if _, err := io.ReadFull(s.rwc, buf[headerSize:]); err != nil {
				fault = &TransportError{Op: "read", Err: err}
				break
			}
		}
		s.dispatch(buf)
	}
	s.teardown(fault)
}

// dispatch routes a received packet to the caller waiting on its id.
// Packets with no pending entry (late replies for cancelled commands,
// or event packets sent by the VM) are dropped.
func (s *Session) dispatch(buf []byte) {
	id := binary.BigEndian.Uint32(buf[4:8])
	flags := buf[8]
	errCode := binary.BigEndian.Uint16(buf[9:11])
	if logflags.JDWPWire() {
		s.wireLog.Debugf("<- id=%d flags=%#x err=%d len=%d", id, flags, errCode, len(buf))
	}

	s.mu.Lock()
	pr, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		s.log.Debugf("dropping packet id=%d: no pending request", id)
		return
	}

	if errCode != 0 {
		pr.ch <- pendingResult{err: CommandError(errCode)}
		return
	}
	r := newPacketReader(buf, &s.sizes)
	r.off = headerSize // cursor at the reply payload
	pr.ch <- pendingResult{rdr: r}
}

// teardown moves the session to Closed, fails every outstanding
// command with the fault, runs the stop observers registered before
// teardown began and finally signals Closed.
func (s *Session) teardown(fault error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	pending := s.pending
	s.pending = make(map[uint32]*pendingReply)
	stops := s.stopFns
	s.stopFns = nil
	s.writeq = nil
	s.mu.Unlock()

	s.rwc.Close()
	s.log.Debugf("session closed: %v", fault)

	for _, pr := range pending {
		pr.ch <- pendingResult{err: fault}
	}
	for _, fn := range stops {
		fn()
	}
	close(s.closed)
}
