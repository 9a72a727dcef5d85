package cube

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/luxcube/cubist/pkg/lattice"
)

// scriptConn is an in-memory Connection serving pre-queued device
// responses. An empty queue behaves like a serial port read timeout
// (Read returns 0 bytes). Reads run on the driver's reader goroutine,
// so the queue is locked.
type scriptConn struct {
	mu     sync.Mutex
	in     bytes.Buffer // device -> host
	out    bytes.Buffer // host -> device
	closed bool
}

func (c *scriptConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, io.EOF
	}
	if c.in.Len() == 0 {
		c.mu.Unlock()
		time.Sleep(time.Millisecond)
		c.mu.Lock()
		return 0, nil
	}
	return c.in.Read(p)
}

func (c *scriptConn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// queue appends an encoded response frame to the connection's read buffer
func (c *scriptConn) queue(t *testing.T, cmd uint8, data []byte) {
	t.Helper()
	payload := append([]byte{cmd}, data...)
	frame, err := lattice.EncodeFrame(payload, 0, true)
	if err != nil {
		t.Fatalf("failed to encode response frame: %v", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.Write(frame)
}

// sentCommands decodes everything the driver wrote and returns the command
// byte of each frame
func (c *scriptConn) sentCommands(t *testing.T) []uint8 {
	t.Helper()
	d := lattice.NewDecoder()
	var cmds []uint8
	for _, b := range c.out.Bytes() {
		frame, err := d.DecodeByte(b)
		if err != nil {
			t.Fatalf("driver wrote an undecodable frame: %v", err)
		}
		if frame != nil && frame.Seq() == 0 {
			// Continuation frames of a fragmented message carry raw data,
			// only seq 0 frames start a logical message
			cmds = append(cmds, frame.Cmd())
		}
	}
	return cmds
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		MinSendInterval: 100 * time.Microsecond,
		ReadTimeout:     500 * time.Millisecond,
		StatePath:       filepath.Join(t.TempDir(), "framebuffer.cbor"),
	}
}

// queueLoginResponses queues the exchange a successful login triggers:
// LOGIN ack, FRAME ack, FLIP ack
func queueLoginResponses(t *testing.T, conn *scriptConn) {
	conn.queue(t, lattice.CmdAck, nil)
	conn.queue(t, lattice.CmdAck, nil)
	conn.queue(t, lattice.CmdAck, nil)
}

func TestDriver_LoginWithAck(t *testing.T) {
	conn := &scriptConn{}
	queueLoginResponses(t, conn)

	d := NewDriver(conn, testConfig(t))
	if d.State() != LoggedOut {
		t.Fatal("driver must start logged out")
	}

	if err := d.Login(); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if d.State() != LoggedIn {
		t.Error("driver should be logged in")
	}
	if !d.LastError().Ok() {
		t.Errorf("last error should be clear, got %v", d.LastError())
	}

	// Fresh session with no persisted buffer: all black, 96 zero wire bytes
	wire := d.Buffer().WireBytes()
	if len(wire) != 96 || !bytes.Equal(wire, make([]byte, 96)) {
		t.Error("fresh login must push an all-black framebuffer")
	}

	// The exchange on the wire: LOGIN, then the framebuffer push (FRAME + FLIP)
	cmds := conn.sentCommands(t)
	want := []uint8{lattice.CmdLogin, lattice.CmdFrame, lattice.CmdFlip}
	if len(cmds) != len(want) {
		t.Fatalf("sent commands = %v, want %v", cmds, want)
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Fatalf("sent commands = %v, want %v", cmds, want)
		}
	}
}

func TestDriver_LoginWithErrCodeZero(t *testing.T) {
	conn := &scriptConn{}
	// Device quirk: ERR with code 0 acknowledges a valid login
	conn.queue(t, lattice.CmdErr, []byte{0})
	conn.queue(t, lattice.CmdAck, nil)
	conn.queue(t, lattice.CmdAck, nil)

	d := NewDriver(conn, testConfig(t))
	if err := d.Login(); err != nil {
		t.Fatalf("Login via ERR code 0 failed: %v", err)
	}
	if d.State() != LoggedIn {
		t.Error("driver should be logged in")
	}
}

func TestDriver_LoginRejected(t *testing.T) {
	conn := &scriptConn{}
	conn.queue(t, lattice.CmdErr, []byte{byte(lattice.ErrorBadLogin)})

	d := NewDriver(conn, testConfig(t))
	if err := d.Login(); err == nil {
		t.Fatal("Login should fail on ERR with a non-zero code")
	}
	if d.State() != LoggedOut {
		t.Error("driver should remain logged out")
	}
	if d.LastError().Code != lattice.ErrorBadLogin {
		t.Errorf("last error = %v, want bad login", d.LastError())
	}
}

func TestDriver_LoginIdempotent(t *testing.T) {
	conn := &scriptConn{}
	queueLoginResponses(t, conn)

	d := NewDriver(conn, testConfig(t))
	if err := d.Login(); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Queue is empty; a second login must be a no-op, not a new exchange
	if err := d.Login(); err != nil {
		t.Fatalf("second Login should be a no-op, got %v", err)
	}
}

func TestDriver_LoginRestoresPersistedBuffer(t *testing.T) {
	cfg := testConfig(t)

	// A previous session left a buffer behind
	saved := NewFramebuffer()
	saved.SetPixel(1, 2, 3, RGB(0xA0, 0xB0, 0xC0))
	if err := NewStore(cfg.StatePath).Save(saved); err != nil {
		t.Fatalf("seeding saved state failed: %v", err)
	}

	conn := &scriptConn{}
	queueLoginResponses(t, conn)

	d := NewDriver(conn, cfg)
	if err := d.Login(); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if got := d.Buffer().At(1, 2, 3); got != (Color{0xA0, 0xB0, 0xC0}) {
		t.Errorf("restored voxel = %v, want saved color", got)
	}
}

func TestDriver_PushPersists(t *testing.T) {
	cfg := testConfig(t)
	conn := &scriptConn{}
	queueLoginResponses(t, conn)

	d := NewDriver(conn, cfg)
	if err := d.Login(); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	d.SetPixel(0, 0, 0, RGB(0xFF, 0, 0))
	conn.queue(t, lattice.CmdAck, nil) // FRAME
	conn.queue(t, lattice.CmdAck, nil) // FLIP
	if err := d.Push(); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	loaded, found, err := NewStore(cfg.StatePath).Load()
	if err != nil || !found {
		t.Fatalf("expected persisted state after push: found=%v err=%v", found, err)
	}
	if loaded.At(0, 0, 0) != (Color{0xFF, 0, 0}) {
		t.Error("persisted buffer does not match the pushed one")
	}
}

func TestDriver_PushNotLoggedIn(t *testing.T) {
	d := NewDriver(&scriptConn{}, testConfig(t))

	if err := d.Push(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Push while logged out = %v, want ErrNotLoggedIn", err)
	}
	if err := d.Flip(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Flip while logged out = %v, want ErrNotLoggedIn", err)
	}
}

func TestDriver_ReadTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReadTimeout = 30 * time.Millisecond

	d := NewDriver(&scriptConn{}, cfg)
	_, err := d.SendData(lattice.CmdPing, nil, false)
	if !errors.Is(err, ErrReadTimeout) {
		t.Errorf("SendData with no response = %v, want ErrReadTimeout", err)
	}
}

// blockingConn never yields from Read until closed, like a silent
// WebSocket bridge with no read timeout of its own
type blockingConn struct {
	unblock chan struct{}
	out     bytes.Buffer
}

func (c *blockingConn) Read(p []byte) (int, error) {
	<-c.unblock
	return 0, io.EOF
}

func (c *blockingConn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

func (c *blockingConn) Close() error {
	close(c.unblock)
	return nil
}

func TestDriver_ReadTimeoutWithBlockingTransport(t *testing.T) {
	conn := &blockingConn{unblock: make(chan struct{})}
	cfg := testConfig(t)
	cfg.ReadTimeout = 50 * time.Millisecond

	d := NewDriver(conn, cfg)
	defer d.Close()

	// The deadline must fire even though the transport's Read never
	// returns, not only between reads
	start := time.Now()
	_, err := d.SendData(lattice.CmdPing, nil, false)
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("SendData over a silent transport = %v, want ErrReadTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("deadline fired after %v, want about %v", elapsed, cfg.ReadTimeout)
	}
}

// failingConn errors on every write
type failingConn struct {
	err error
}

func (c *failingConn) Read(p []byte) (int, error)  { return 0, c.err }
func (c *failingConn) Write(p []byte) (int, error) { return 0, c.err }
func (c *failingConn) Close() error                { return nil }

func TestDriver_TransportErrorType(t *testing.T) {
	cause := errors.New("wire cut")
	d := NewDriver(&failingConn{err: cause}, testConfig(t))

	_, err := d.SendData(lattice.CmdPing, nil, true)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("write failure = %v, want a TransportError", err)
	}
	if te.Op != "write" {
		t.Errorf("op = %q, want write", te.Op)
	}
	if !errors.Is(err, cause) {
		t.Error("TransportError must unwrap to the underlying cause")
	}
}

func TestDriver_RateLimiter(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinSendInterval = 20 * time.Millisecond

	d := NewDriver(&scriptConn{}, cfg)

	// Let the construction timestamp age out so only the gap between the
	// two sends is measured
	time.Sleep(cfg.MinSendInterval)

	start := time.Now()
	if _, err := d.SendData(lattice.CmdPing, nil, true); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if _, err := d.SendData(lattice.CmdPing, nil, true); err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < cfg.MinSendInterval {
		t.Errorf("back-to-back sends %v apart, want at least %v", elapsed, cfg.MinSendInterval)
	}
}

func TestDriver_ErrResponseUpdatesLastError(t *testing.T) {
	conn := &scriptConn{}
	conn.queue(t, lattice.CmdErr, []byte{byte(lattice.ErrorOverflow)})

	d := NewDriver(conn, testConfig(t))

	// Device ERR responses do not raise; they set the last-error record
	resp, err := d.SendData(lattice.CmdPing, nil, false)
	if err != nil {
		t.Fatalf("SendData returned %v, want nil for a decodable ERR response", err)
	}
	if !resp.IsError() {
		t.Fatal("expected an ERR response frame")
	}
	if d.LastError().Code != lattice.ErrorOverflow {
		t.Errorf("last error = %v, want overflow", d.LastError())
	}

	// Any non-error response clears it again
	conn.queue(t, lattice.CmdAck, nil)
	if _, err := d.SendData(lattice.CmdPing, nil, false); err != nil {
		t.Fatalf("SendData failed: %v", err)
	}
	if !d.LastError().Ok() {
		t.Errorf("last error should be clear, got %v", d.LastError())
	}
}

func TestDriver_Info(t *testing.T) {
	conn := &scriptConn{}
	queueLoginResponses(t, conn)

	d := NewDriver(conn, testConfig(t))
	if err := d.Login(); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	conn.queue(t, lattice.CmdInfo, []byte("Luxcube 64"))
	conn.queue(t, lattice.CmdInfo, []byte("4x4x4 RGB voxel display"))
	conn.queue(t, lattice.CmdInfo, []byte("(c) Luxcube"))
	conn.queue(t, lattice.CmdVers, []byte{2, 1, 1, 4, 1, 0})

	info, err := d.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Name != "Luxcube 64" {
		t.Errorf("name = %q", info.Name)
	}
	if info.Description != "4x4x4 RGB voxel display" {
		t.Errorf("description = %q", info.Description)
	}
	if info.Hardware.String() != "2.1" || info.Software.String() != "1.4" || info.Protocol.String() != "1.0" {
		t.Errorf("versions = hw %s sw %s proto %s", info.Hardware, info.Software, info.Protocol)
	}

	// Second call must hit the cache (the queue is empty now)
	cached, err := d.Info()
	if err != nil {
		t.Fatalf("cached Info failed: %v", err)
	}
	if cached != info {
		t.Error("Info should return the cached value")
	}
}

func TestDriver_InfoShortVersion(t *testing.T) {
	conn := &scriptConn{}
	queueLoginResponses(t, conn)

	d := NewDriver(conn, testConfig(t))
	if err := d.Login(); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	conn.queue(t, lattice.CmdInfo, []byte("a"))
	conn.queue(t, lattice.CmdInfo, []byte("b"))
	conn.queue(t, lattice.CmdInfo, []byte("c"))
	conn.queue(t, lattice.CmdVers, []byte{2, 1})

	_, err := d.Info()
	if err == nil {
		t.Fatal("Info should fail on a truncated VERS reply")
	}
	// The reply was well-formed, just short: the error reports the
	// payload length, not a device error code
	if !strings.Contains(err.Error(), "2 bytes") {
		t.Errorf("error = %v, want the short payload length reported", err)
	}
}

func TestDriver_InfoRequiresLogin(t *testing.T) {
	d := NewDriver(&scriptConn{}, testConfig(t))
	if _, err := d.Info(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Info while logged out = %v, want ErrNotLoggedIn", err)
	}
}

func TestDriver_LogoutClearsSession(t *testing.T) {
	conn := &scriptConn{}
	queueLoginResponses(t, conn)

	d := NewDriver(conn, testConfig(t))
	if err := d.Login(); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	conn.queue(t, lattice.CmdInfo, []byte("a"))
	conn.queue(t, lattice.CmdInfo, []byte("b"))
	conn.queue(t, lattice.CmdInfo, []byte("c"))
	conn.queue(t, lattice.CmdVers, []byte{1, 0, 1, 0, 1, 0})
	if _, err := d.Info(); err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	// Logout is fire-and-forget: no response queued, none awaited
	if err := d.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if d.State() != LoggedOut {
		t.Error("driver should be logged out")
	}
	if _, err := d.Info(); !errors.Is(err, ErrNotLoggedIn) {
		t.Error("device info cache must be discarded on logout")
	}

	// Logging out twice is a no-op
	if err := d.Logout(); err != nil {
		t.Errorf("second Logout should be a no-op, got %v", err)
	}
}

func TestDriver_QueryError(t *testing.T) {
	conn := &scriptConn{}
	conn.queue(t, lattice.CmdErr, []byte{byte(lattice.ErrorBadChecksum)})

	d := NewDriver(conn, testConfig(t))
	info, err := d.QueryError()
	if err != nil {
		t.Fatalf("QueryError failed: %v", err)
	}
	if info.Code != lattice.ErrorBadChecksum {
		t.Errorf("error = %v, want bad checksum", info)
	}

	// The query plus the register reset must both have gone out
	cmds := conn.sentCommands(t)
	if len(cmds) != 2 || cmds[0] != lattice.CmdErr || cmds[1] != lattice.CmdErr {
		t.Errorf("sent commands = %v, want two ERR exchanges", cmds)
	}
}

func TestDriver_FrameFragmentation(t *testing.T) {
	conn := &scriptConn{}
	queueLoginResponses(t, conn)

	d := NewDriver(conn, testConfig(t))
	if err := d.Login(); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// A FRAME message carries 1+96 bytes, which exceeds one frame: the
	// write stream must contain multiple frames, all but the last flagged
	// "more data".
	dec := lattice.NewDecoder()
	var frames []*lattice.Frame
	for _, b := range conn.out.Bytes() {
		f, err := dec.DecodeByte(b)
		if err != nil {
			t.Fatalf("undecodable driver output: %v", err)
		}
		if f != nil {
			frames = append(frames, f)
		}
	}

	var frameCmd []*lattice.Frame
	for i, f := range frames {
		if f.Cmd() == lattice.CmdFrame && f.Seq() == 0 && i+1 < len(frames) {
			frameCmd = append(frameCmd, f, frames[i+1])
		}
	}
	if len(frameCmd) != 2 {
		t.Fatalf("expected the FRAME message to span 2 frames, got %d", len(frameCmd))
	}
	if frameCmd[0].IsLast() {
		t.Error("first FRAME fragment must be flagged more-data")
	}
	if !frameCmd[1].IsLast() {
		t.Error("second FRAME fragment must be flagged last")
	}
	if frameCmd[1].Seq() != 1 {
		t.Errorf("second fragment seq = %d, want 1", frameCmd[1].Seq())
	}
}
