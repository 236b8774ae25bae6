package player

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	// PlayerInterface is the MPRIS player interface.
	PlayerInterface = "org.mpris.MediaPlayer2.Player"

	propertiesGet = "org.freedesktop.DBus.Properties.Get"
	peerPing      = "org.freedesktop.DBus.Peer.Ping"
)

// Bus is the view of the remote player every other component depends on.
type Bus interface {
	// GetProperty reads a property synchronously.
	GetProperty(ctx context.Context, iface, name string) (Value, error)

	// CallMethod issues a method call with no arguments and returns at once.
	CallMethod(ctx context.Context, iface, method string) *Call
}

// Call is a method call in flight. It resolves exactly once.
type Call struct {
	done  chan struct{}
	once  sync.Once
	value Value
	err   error
}

func newCall() *Call {
	return &Call{done: make(chan struct{})}
}

// ResolvedCall returns a Call that has already completed, for Bus
// implementations that answer synchronously.
func ResolvedCall(v Value, err error) *Call {
	c := newCall()
	c.resolve(v, err)
	return c
}

func (c *Call) resolve(v Value, err error) {
	c.once.Do(func() {
		c.value, c.err = v, err
		close(c.done)
	})
}

// Done is closed once the call has completed or failed.
func (c *Call) Done() <-chan struct{} { return c.done }

// Result returns the reply. It must only be called after Done is closed.
func (c *Call) Result() (Value, error) { return c.value, c.err }

// Session is the live connection to the session bus, bound to one player.
type Session struct {
	conn *dbus.Conn
	obj  dbus.BusObject
	opts Options
	log  zerolog.Logger
}

type dialResult struct {
	conn *dbus.Conn
	err  error
}

// Open connects to the session bus and binds to the configured player. ctx
// bounds the handshake only; the connection lives until Close. The handshake
// is not retried; a failure is returned as a *ConnectionError.
func Open(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	// godbus closes a connection once the context given to WithContext is
	// done, so the dial runs on the background context.
	dialed := make(chan dialResult, 1)
	go func() {
		conn, err := dbus.ConnectSessionBus()
		dialed <- dialResult{conn: conn, err: err}
	}()

	var conn *dbus.Conn
	select {
	case r := <-dialed:
		if r.err != nil {
			return nil, &ConnectionError{Service: opts.Service, Err: r.err}
		}
		conn = r.conn
	case <-ctx.Done():
		go func() {
			if r := <-dialed; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, &ConnectionError{Service: opts.Service, Err: ctx.Err()}
	}

	s := &Session{
		conn: conn,
		obj:  conn.Object(opts.Service, dbus.ObjectPath(opts.ObjectPath)),
		opts: opts,
		log:  opts.Logger.With().Str("service", opts.Service).Logger(),
	}
	s.log.Debug().Str("path", opts.ObjectPath).Msg("session bus connected")
	return s, nil
}

// Service returns the well-known name the session is bound to.
func (s *Session) Service() string { return s.opts.Service }

// Connected reports whether the underlying connection is still usable.
func (s *Session) Connected() bool { return s.conn.Connected() }

func (s *Session) GetProperty(ctx context.Context, iface, name string) (Value, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var v dbus.Variant
	if err := s.obj.CallWithContext(ctx, propertiesGet, 0, iface, name).Store(&v); err != nil {
		return Value{}, &PropertyError{Interface: iface, Name: name, Err: err}
	}
	return FromDBus(v), nil
}

func (s *Session) CallMethod(ctx context.Context, iface, method string) *Call {
	call := newCall()
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	pending := s.obj.GoWithContext(ctx, iface+"."+method, 0, make(chan *dbus.Call, 1))
	go func() {
		defer cancel()
		reply := <-pending.Done
		if reply.Err != nil {
			call.resolve(Value{}, &CallError{Interface: iface, Method: method, Err: reply.Err})
			return
		}
		switch len(reply.Body) {
		case 0:
			call.resolve(Value{}, nil)
		case 1:
			call.resolve(FromDBus(reply.Body[0]), nil)
		default:
			call.resolve(FromDBus(reply.Body), nil)
		}
	}()
	return call
}

// Ping checks that the player answers on the bus.
func (s *Session) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.obj.CallWithContext(ctx, peerPing, 0).Err; err != nil {
		return &CallError{Interface: "org.freedesktop.DBus.Peer", Method: "Ping", Err: err}
	}
	return nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}
