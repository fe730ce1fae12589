// Package lifecycle owns the runtime-reconfigurable HTTP listener. A
// single coordinator goroutine holds all listener state and applies
// commands strictly in arrival order, so overlapping start/stop/restart
// requests can never interleave mid-transition.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geopod-io/geopod/internal/config"
	"github.com/geopod-io/geopod/internal/observability"
	"github.com/geopod-io/geopod/internal/store"
)

// settleDelay separates the close of the old listener from the bind of
// its replacement during a restart, giving the kernel a moment to release
// the port.
const settleDelay = 100 * time.Millisecond

// Params carries a reconfiguration request.
type Params struct {
	InternalAddress string
	ExternalAddress string
	Port            int
}

// ValidationError reports every violation in a rejected reconfiguration,
// not just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// Status is a point-in-time snapshot of the listener.
type Status struct {
	Running     bool   `json:"running"`
	BindAddress string `json:"bind_address"`
	ExternalURL string `json:"external_url"`
	LastError   string `json:"last_error,omitempty"`
}

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdStop
	cmdRestart
	cmdReconfigure
	cmdStatus
)

type command struct {
	kind   cmdKind
	ctx    context.Context
	params Params
	reply  chan reply
}

type reply struct {
	msg    string
	status Status
	err    error
}

// Controller is the public face of the coordinator. All methods are safe
// for concurrent use; each one round-trips a command through the
// coordinator goroutine.
type Controller struct {
	logger   *slog.Logger
	settings store.Settings
	handler  func() http.Handler

	cmds chan command
	quit chan struct{}
	done chan struct{}

	// everything below is owned by the coordinator goroutine
	cfg       config.ServerConfig
	srv       *http.Server
	running   bool
	lastErr   error
	serveErrs chan error
}

// New builds the controller and starts its coordinator. The handler
// factory is invoked on every (re)start so route state never outlives a
// listener generation.
func New(cfg config.ServerConfig, settings store.Settings, handler func() http.Handler, logger *slog.Logger) *Controller {
	c := &Controller{
		logger:    logger,
		settings:  settings,
		handler:   handler,
		cmds:      make(chan command),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		cfg:       cfg,
		serveErrs: make(chan error, 1),
	}
	go c.loop()
	return c
}

// Start brings the listener up on the configured address.
func (c *Controller) Start(ctx context.Context) (string, error) {
	r := c.send(ctx, command{kind: cmdStart})
	return r.msg, r.err
}

// Stop closes the listener abruptly; in-flight requests are cut off, not
// drained.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	r := c.send(ctx, command{kind: cmdStop})
	return r.msg, r.err
}

// Restart stops the listener when running, waits briefly for the port to
// settle, then starts it again on the current configuration.
func (c *Controller) Restart(ctx context.Context) (string, error) {
	r := c.send(ctx, command{kind: cmdRestart})
	return r.msg, r.err
}

// Reconfigure validates the new settings, persists them, swaps the
// in-memory configuration and restarts the listener. Persisted settings
// are not rolled back when the subsequent restart fails to bind.
func (c *Controller) Reconfigure(ctx context.Context, p Params) (string, error) {
	r := c.send(ctx, command{kind: cmdReconfigure, params: p})
	return r.msg, r.err
}

// Status reports the current listener state, including the most recent
// serve or bind error.
func (c *Controller) Status(ctx context.Context) Status {
	return c.send(ctx, command{kind: cmdStatus}).status
}

// BaseURL returns the externally visible API base for link generation,
// reflecting the live configuration.
func (c *Controller) BaseURL(ctx context.Context) string {
	return c.Status(ctx).ExternalURL
}

// Shutdown stops the coordinator, closing the listener when it is up.
func (c *Controller) Shutdown() {
	select {
	case <-c.done:
		return
	default:
	}
	close(c.quit)
	<-c.done
}

func (c *Controller) send(ctx context.Context, cmd command) reply {
	cmd.ctx = ctx
	cmd.reply = make(chan reply, 1)
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return reply{err: fmt.Errorf("lifecycle controller is shut down")}
	case <-ctx.Done():
		return reply{err: ctx.Err()}
	}
	select {
	case r := <-cmd.reply:
		return r
	case <-ctx.Done():
		return reply{err: ctx.Err()}
	}
}

func (c *Controller) loop() {
	defer close(c.done)
	for {
		select {
		case cmd := <-c.cmds:
			cmd.reply <- c.apply(cmd)
		case err := <-c.serveErrs:
			c.lastErr = err
			c.logger.Error("listener terminated unexpectedly", "err", err)
		case <-c.quit:
			if c.srv != nil {
				c.srv.Close()
				observability.SetListenerUp(false)
			}
			return
		}
	}
}

func (c *Controller) apply(cmd command) reply {
	switch cmd.kind {
	case cmdStart:
		return c.doStart()
	case cmdStop:
		return c.doStop()
	case cmdRestart:
		return c.doRestart()
	case cmdReconfigure:
		return c.doReconfigure(cmd.ctx, cmd.params)
	case cmdStatus:
		return reply{status: c.snapshot()}
	}
	return reply{err: fmt.Errorf("unknown command %d", cmd.kind)}
}

func (c *Controller) doStart() reply {
	if c.running {
		return reply{msg: "Server is already running"}
	}
	c.launch()
	return reply{msg: fmt.Sprintf("Server started successfully on %s", c.cfg.BindAddr())}
}

// launch marks the listener Running and spawns the serve goroutine. The
// bind happens inside that goroutine, so a bind failure surfaces through
// serveErrs and is visible in Status, while the state remains Running
// until an explicit stop or restart.
func (c *Controller) launch() {
	addr := c.cfg.BindAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	c.srv = srv
	c.running = true
	c.lastErr = nil
	observability.SetListenerUp(true)
	c.logger.Info("starting listener", "addr", addr)

	go func() {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			c.reportServeErr(fmt.Errorf("bind %s: %w", addr, err))
			return
		}
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			c.reportServeErr(err)
		}
	}()
}

func (c *Controller) reportServeErr(err error) {
	select {
	case c.serveErrs <- err:
	default:
	}
}

func (c *Controller) doStop() reply {
	if !c.running {
		return reply{msg: "Server was not running"}
	}
	c.closeListener()
	return reply{msg: "Server stopped successfully"}
}

func (c *Controller) closeListener() {
	if c.srv != nil {
		if err := c.srv.Close(); err != nil {
			c.logger.Warn("error closing listener", "err", err)
		}
		c.srv = nil
	}
	c.running = false
	observability.SetListenerUp(false)
	c.logger.Info("listener stopped")
}

func (c *Controller) doRestart() reply {
	if c.running {
		c.closeListener()
		time.Sleep(settleDelay)
	}
	c.launch()
	return reply{msg: "Server restarted successfully"}
}

func (c *Controller) doReconfigure(ctx context.Context, p Params) reply {
	if err := validate(p); err != nil {
		return reply{err: err}
	}

	pairs := map[string]string{
		store.SettingInternalAddress: p.InternalAddress,
		store.SettingExternalAddress: p.ExternalAddress,
		store.SettingPort:            strconv.Itoa(p.Port),
	}
	for key, val := range pairs {
		if err := c.settings.Set(ctx, key, val); err != nil {
			return reply{err: fmt.Errorf("persist setting %s: %w", key, err)}
		}
	}

	c.cfg.InternalAddress = p.InternalAddress
	c.cfg.ExternalAddress = p.ExternalAddress
	c.cfg.Port = p.Port
	c.logger.Info("configuration updated",
		"internal_address", p.InternalAddress,
		"external_address", p.ExternalAddress,
		"port", p.Port)

	return c.doRestart()
}

// validate collects every violation rather than stopping at the first, so
// a caller can fix the whole request in one round trip.
func validate(p Params) error {
	var violations []string
	if strings.TrimSpace(p.InternalAddress) == "" {
		violations = append(violations, "internal address must not be empty")
	}
	if strings.TrimSpace(p.ExternalAddress) == "" {
		violations = append(violations, "external address must not be empty")
	}
	if p.Port < 1024 || p.Port > 65535 {
		violations = append(violations, fmt.Sprintf("port %d outside allowed range 1024-65535", p.Port))
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (c *Controller) snapshot() Status {
	s := Status{
		Running:     c.running,
		BindAddress: c.cfg.BindAddr(),
		ExternalURL: c.cfg.ExternalURL(),
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}
