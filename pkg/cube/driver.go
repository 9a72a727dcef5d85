// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package cube

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/luxcube/cubist/pkg/lattice"
)

// Connection is the byte transport the driver talks through: a serial
// port, a WebSocket serial bridge, or anything else carrying the raw link.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SessionState tracks the driver's login state
type SessionState int

// Session states
const (
	LoggedOut SessionState = iota
	LoggedIn
)

// String returns the session state name
func (s SessionState) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case LoggedIn:
		return "logged in"
	default:
		return "unknown"
	}
}

// Version is a major.minor version pair from the device's VERS reply
type Version struct {
	Major uint8
	Minor uint8
}

// String renders the version as "major.minor"
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// DeviceInfo is the device's identity block, fetched lazily once per
// session and discarded on logout.
type DeviceInfo struct {
	Name        string
	Description string
	Copyright   string
	Hardware    Version
	Software    Version
	Protocol    Version
}

// Sentinel errors
var (
	// ErrNotLoggedIn is returned for display-affecting operations while
	// the session is logged out.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrReadTimeout is returned when no complete frame arrives within
	// the configured read timeout.
	ErrReadTimeout = errors.New("timed out waiting for response frame")
)

// TransportError wraps a failed read or write on the underlying
// connection. Callers running batches use it to tell link failures
// apart from drawing mistakes.
type TransportError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timing defaults
const (
	// DefaultMinSendInterval paces writes so the device is never driven
	// faster than its refresh budget.
	DefaultMinSendInterval = time.Second / 300

	DefaultReadTimeout = 2 * time.Second
)

// loginChallenge is the fixed challenge the device expects in a LOGIN
// command.
var loginChallenge = []byte{0x4C, 0x55, 0x58, 0x33}

// Config carries the driver's tunables. Zero values select defaults;
// an empty StatePath disables framebuffer persistence.
type Config struct {
	MinSendInterval time.Duration
	ReadTimeout     time.Duration
	StatePath       string
}

// Driver owns one session with the cube. All state is owned by the one
// driver instance and mutated only by its own methods; it is not safe for
// concurrent use without external synchronization, and SendData must not
// be re-entered while a call is outstanding.
type Driver struct {
	conn    Connection
	decoder *lattice.Decoder

	state   SessionState
	lastErr lattice.ErrorInfo
	info    *DeviceInfo
	fb      *Framebuffer
	store   *Store

	lastSend    time.Time
	minInterval time.Duration
	readTimeout time.Duration

	readerOnce sync.Once
	reads      chan readChunk
	pending    []byte // received but not yet decoded
	readErr    error  // terminal transport read failure

	active bool // advisory: a read or write is in flight
}

// readChunk is one batch of bytes from the reader goroutine, or its
// terminal error.
type readChunk struct {
	data []byte
	err  error
}

// NewDriver creates a driver over the given connection. The session starts
// logged out with a framebuffer cleared to black.
func NewDriver(conn Connection, cfg Config) *Driver {
	if cfg.MinSendInterval == 0 {
		cfg.MinSendInterval = DefaultMinSendInterval
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	var store *Store
	if cfg.StatePath != "" {
		store = NewStore(cfg.StatePath)
	}

	return &Driver{
		conn:        conn,
		decoder:     lattice.NewDecoder(),
		state:       LoggedOut,
		lastErr:     lattice.NoError(),
		fb:          NewFramebuffer(),
		store:       store,
		lastSend:    time.Now(),
		minInterval: cfg.MinSendInterval,
		readTimeout: cfg.ReadTimeout,
	}
}

// State returns the current session state
func (d *Driver) State() SessionState {
	return d.state
}

// Activity reports whether a read or write is currently in flight.
// Advisory only; it is not a lock.
func (d *Driver) Activity() bool {
	return d.active
}

// LastError returns the last decoded device error. It is cleared to
// "no error" whenever a non-error response is received.
func (d *Driver) LastError() lattice.ErrorInfo {
	return d.lastErr
}

// Buffer returns the driver's framebuffer
func (d *Driver) Buffer() *Framebuffer {
	return d.fb
}

// Close closes the underlying connection
func (d *Driver) Close() error {
	return d.conn.Close()
}

// SendData is the single choke point for every outgoing exchange: it
// rate-limits, fragments the logical message into frames, transmits them
// all, then reads and decodes exactly one response frame unless
// fireAndForget is set.
//
// An ERR response updates the last-error record and is still returned
// with a nil error; callers check the frame or LastError. Transport
// failures and response timeouts are returned as errors.
func (d *Driver) SendData(cmd uint8, data []byte, fireAndForget bool) (*lattice.Frame, error) {
	d.waitSendInterval()

	frames, err := lattice.Packetize(cmd, data)
	if err != nil {
		return nil, err
	}

	d.active = true
	defer func() { d.active = false }()

	for _, frame := range frames {
		if _, err := d.conn.Write(frame); err != nil {
			return nil, &TransportError{Op: "write", Err: err}
		}
	}

	if fireAndForget {
		return nil, nil
	}

	resp, err := d.readFrame()
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		d.lastErr = resp.ErrorInfo()
	} else {
		d.lastErr = lattice.NoError()
	}
	return resp, nil
}

// waitSendInterval enforces the pacing floor: if less than the minimum
// interval has elapsed since the previous send, sleep the remainder. The
// timestamp is always advanced afterwards; no burst credit accumulates.
func (d *Driver) waitSendInterval() {
	if elapsed := time.Since(d.lastSend); elapsed < d.minInterval {
		time.Sleep(d.minInterval - elapsed)
	}
	d.lastSend = time.Now()
}

// startReader launches the goroutine that owns all reads on the
// connection, feeding received bytes into a channel. Keeping the blocking
// Read off the caller's goroutine lets readFrame enforce its deadline on
// any transport, including ones with no read timeout of their own. The
// goroutine exits on the first read error, which closing the connection
// provokes.
func (d *Driver) startReader() {
	d.readerOnce.Do(func() {
		d.reads = make(chan readChunk, 8)
		go func() {
			buf := make([]byte, 256)
			for {
				n, err := d.conn.Read(buf)
				if n > 0 {
					data := make([]byte, n)
					copy(data, buf[:n])
					d.reads <- readChunk{data: data}
				}
				if err != nil {
					d.reads <- readChunk{err: err}
					close(d.reads)
					return
				}
				// n == 0 with no error is a port read timeout tick
			}
		}()
	})
}

// readFrame feeds received bytes through the decoder until one frame
// completes or the read deadline passes. Local decode failures update the
// last-error record and scanning continues, so the driver recovers from a
// desynchronized link instead of giving up on the first bad byte.
func (d *Driver) readFrame() (*lattice.Frame, error) {
	d.startReader()

	timer := time.NewTimer(d.readTimeout)
	defer timer.Stop()

	for {
		for len(d.pending) > 0 {
			b := d.pending[0]
			d.pending = d.pending[1:]

			frame, err := d.decoder.DecodeByte(b)
			if err != nil {
				var fe *lattice.FrameError
				if errors.As(err, &fe) {
					d.lastErr = lattice.ErrorInfo{Code: fe.Code, Message: fe.Code.String()}
				}
				continue
			}
			if frame != nil {
				return frame, nil
			}
		}

		if d.readErr != nil {
			return nil, &TransportError{Op: "read", Err: d.readErr}
		}

		select {
		case <-timer.C:
			return nil, ErrReadTimeout
		case chunk, ok := <-d.reads:
			if !ok {
				return nil, &TransportError{Op: "read", Err: io.ErrClosedPipe}
			}
			if chunk.err != nil {
				d.readErr = chunk.err
				return nil, &TransportError{Op: "read", Err: chunk.err}
			}
			d.pending = append(d.pending, chunk.data...)
		}
	}
}

// Login performs the login handshake and becomes a no-op once logged in.
// On success the persisted framebuffer is restored (or the buffer cleared
// to black) and pushed to the device.
//
// The device sometimes acknowledges a valid login with an ERR frame
// carrying error code 0 instead of an ACK. That is tolerated as a success
// here; no other ERR response is treated as an acknowledgement.
func (d *Driver) Login() error {
	if d.state == LoggedIn {
		return nil
	}

	resp, err := d.SendData(lattice.CmdLogin, loginChallenge, false)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	switch {
	case resp.Cmd() == lattice.CmdAck:
	case resp.IsError() && resp.ErrorInfo().Ok():
		// ERR with code 0, see above
	case resp.IsError():
		return fmt.Errorf("login rejected: %s", lattice.FormatErrorCode(resp.ErrorInfo().Code))
	default:
		return fmt.Errorf("login rejected: unexpected %s response", lattice.FormatCommand(resp.Cmd()))
	}

	d.state = LoggedIn

	d.fb = NewFramebuffer()
	if d.store != nil {
		saved, found, err := d.store.Load()
		if err != nil {
			log.Printf("ignoring saved framebuffer: %v", err)
		} else if found {
			d.fb = saved
		}
	}

	return d.Push()
}

// Logout sends LOGOUT fire-and-forget, drops the session to logged out
// and discards cached device info.
func (d *Driver) Logout() error {
	if d.state == LoggedOut {
		return nil
	}

	_, err := d.SendData(lattice.CmdLogout, nil, true)
	d.state = LoggedOut
	d.info = nil
	return err
}

// Ping sends a fire-and-forget keepalive. A transfer already in flight
// counts as an implicit ping, so the send is skipped while the connection
// is active.
func (d *Driver) Ping() error {
	if d.active {
		return nil
	}
	_, err := d.SendData(lattice.CmdPing, nil, true)
	return err
}

// Reset sends a fire-and-forget device reset
func (d *Driver) Reset() error {
	_, err := d.SendData(lattice.CmdReset, nil, true)
	return err
}

// Info returns the device identity, fetching and caching it on first use.
// The cache is discarded on logout.
func (d *Driver) Info() (*DeviceInfo, error) {
	if d.info != nil {
		return d.info, nil
	}
	if d.state != LoggedIn {
		return nil, ErrNotLoggedIn
	}

	name, err := d.queryInfo(lattice.InfoName)
	if err != nil {
		return nil, err
	}
	description, err := d.queryInfo(lattice.InfoDescription)
	if err != nil {
		return nil, err
	}
	copyright, err := d.queryInfo(lattice.InfoCopyright)
	if err != nil {
		return nil, err
	}

	resp, err := d.SendData(lattice.CmdVers, nil, false)
	if err != nil {
		return nil, fmt.Errorf("version query: %w", err)
	}
	vers := resp.Payload()
	if resp.IsError() {
		return nil, fmt.Errorf("version query failed: %s", lattice.FormatErrorCode(resp.ErrorInfo().Code))
	}
	if len(vers) < 6 {
		return nil, fmt.Errorf("version query failed: short payload (%d bytes, want 6)", len(vers))
	}

	d.info = &DeviceInfo{
		Name:        name,
		Description: description,
		Copyright:   copyright,
		Hardware:    Version{Major: vers[0], Minor: vers[1]},
		Software:    Version{Major: vers[2], Minor: vers[3]},
		Protocol:    Version{Major: vers[4], Minor: vers[5]},
	}
	return d.info, nil
}

// queryInfo fetches one INFO string by selector
func (d *Driver) queryInfo(selector uint8) (string, error) {
	resp, err := d.SendData(lattice.CmdInfo, []byte{selector}, false)
	if err != nil {
		return "", fmt.Errorf("info query %d: %w", selector, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("info query %d failed: %s", selector, lattice.FormatErrorCode(d.lastErr.Code))
	}
	return string(resp.Payload()), nil
}

// QueryError reads the device's error register, then resets it. The
// decoded value also becomes the driver's last-error record.
func (d *Driver) QueryError() (lattice.ErrorInfo, error) {
	resp, err := d.SendData(lattice.CmdErr, nil, false)
	if err != nil {
		return lattice.NoError(), fmt.Errorf("error query: %w", err)
	}
	info := resp.ErrorInfo()

	// Writing code 0 clears the device's register
	if _, err := d.SendData(lattice.CmdErr, []byte{0}, true); err != nil {
		return info, fmt.Errorf("error register reset: %w", err)
	}
	return info, nil
}

// SetPixel writes one voxel in the local framebuffer
func (d *Driver) SetPixel(x, y, z int, c Color) error {
	return d.fb.SetPixel(x, y, z, c)
}

// SetPlane fills one plane in the local framebuffer
func (d *Driver) SetPlane(axis Axis, index int, c Color) error {
	return d.fb.SetPlane(axis, index, c)
}

// Clear fills the local framebuffer with one color
func (d *Driver) Clear(c Color) {
	d.fb.Clear(c)
}

// Push transmits the framebuffer as a FRAME command, flips the device's
// display buffers, and persists the buffer for the next session.
func (d *Driver) Push() error {
	if d.state != LoggedIn {
		return ErrNotLoggedIn
	}

	resp, err := d.SendData(lattice.CmdFrame, d.fb.WireBytes(), false)
	if err != nil {
		return fmt.Errorf("frame push: %w", err)
	}
	if resp.IsError() && !resp.ErrorInfo().Ok() {
		return fmt.Errorf("frame rejected: %s", lattice.FormatErrorCode(resp.ErrorInfo().Code))
	}

	if err := d.Flip(); err != nil {
		return err
	}

	if d.store != nil {
		if err := d.store.Save(d.fb); err != nil {
			log.Printf("failed to persist framebuffer: %v", err)
		}
	}
	return nil
}

// Flip swaps the device's display buffers
func (d *Driver) Flip() error {
	if d.state != LoggedIn {
		return ErrNotLoggedIn
	}
	resp, err := d.SendData(lattice.CmdFlip, nil, false)
	if err != nil {
		return fmt.Errorf("flip: %w", err)
	}
	if resp.IsError() && !resp.ErrorInfo().Ok() {
		return fmt.Errorf("flip rejected: %s", lattice.FormatErrorCode(resp.ErrorInfo().Code))
	}
	return nil
}
