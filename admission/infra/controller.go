package infra

import (
	"context"
	"io"
	"sync"
	"time"

	"sunrise-finder/admission/domain"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

const (
	DefaultMaxInFlight  = 5
	DefaultMinPauseTime = 5 * time.Second
)

// Controller é um limitador de vagas com pausa por lote.
//
// Até maxInFlight permissões são concedidas de imediato. Quando o conjunto
// ativo atinge o limite, o controller fecha: novos pedidos entram numa fila
// FIFO sem limite de tamanho. Ele só reabre quando (a) todas as permissões
// ativas no momento do bloqueio forem devolvidas e (b) minPauseTime tiver
// passado, o que vier por último. Ao reabrir, admite até maxInFlight
// pedidos da fila; se o lote encher o limite, bloqueia de novo.
type Controller struct {
	mu      sync.Mutex
	blocked bool
	active  map[domain.Token]chan struct{}
	queue   []*waiter

	maxInFlight  int
	minPauseTime time.Duration
	clock        clock.Clock
	log          logrus.FieldLogger
	newToken     func() domain.Token
}

var _ domain.Gate = (*Controller)(nil)

type waiter struct {
	token domain.Token
	ready chan struct{}
}

// Snapshot é uma leitura pontual do estado do controller.
type Snapshot struct {
	InFlight int
	Queued   int
	Blocked  bool
}

type ControllerOption func(*Controller)

// WithMaxInFlight define o limite de permissões simultâneas. Valores < 1 são ignorados.
func WithMaxInFlight(n int) ControllerOption {
	return func(c *Controller) {
		if n >= 1 {
			c.maxInFlight = n
		}
	}
}

// WithMinPauseTime define a pausa mínima entre o bloqueio e a próxima drenagem.
// Valores negativos viram 0.
func WithMinPauseTime(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d < 0 {
			d = 0
		}
		c.minPauseTime = d
	}
}

func WithClock(clk clock.Clock) ControllerOption {
	return func(c *Controller) {
		if clk != nil {
			c.clock = clk
		}
	}
}

func WithLogger(l logrus.FieldLogger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithTokenSource(fn func() domain.Token) ControllerOption {
	return func(c *Controller) {
		if fn != nil {
			c.newToken = fn
		}
	}
}

func NewController(opts ...ControllerOption) *Controller {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Controller{
		active:       make(map[domain.Token]chan struct{}),
		maxInFlight:  DefaultMaxInFlight,
		minPauseTime: DefaultMinPauseTime,
		clock:        clock.RealClock{},
		log:          discard,
		newToken:     NewToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) MaxInFlight() int            { return c.maxInFlight }
func (c *Controller) MinPauseTime() time.Duration { return c.minPauseTime }

// Acquire implementa domain.Gate.
//
// Se o controller estiver aberto, a permissão é concedida na hora. Se estiver
// bloqueado, o chamador espera na fila até ser admitido por uma drenagem.
// Cancelar ctx retira da fila um pedido ainda não admitido e retorna ctx.Err().
func (c *Controller) Acquire(ctx context.Context) (domain.Token, error) {
	c.mu.Lock()
	tok := c.newToken()

	if !c.blocked {
		c.admitLocked(tok)
		if len(c.active) >= c.maxInFlight {
			c.blockLocked()
		}
		c.mu.Unlock()
		return tok, nil
	}

	w := &waiter{token: tok, ready: make(chan struct{})}
	c.queue = append(c.queue, w)
	c.mu.Unlock()

	select {
	case <-w.ready:
		return tok, nil
	case <-ctx.Done():
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-w.ready:
		// admitido enquanto o cancelamento chegava: a vaga já é do chamador.
		return tok, nil
	default:
	}
	c.removeWaiterLocked(w)
	return "", ctx.Err()
}

// Release implementa domain.Gate. Tokens desconhecidos (ou já devolvidos) são ignorados.
func (c *Controller) Release(tok domain.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	done, ok := c.active[tok]
	if !ok {
		return
	}
	delete(c.active, tok)
	close(done)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		InFlight: len(c.active),
		Queued:   len(c.queue),
		Blocked:  c.blocked,
	}
}

func (c *Controller) admitLocked(tok domain.Token) {
	c.active[tok] = make(chan struct{})
}

// blockLocked fecha o controller e dispara a espera em background.
// Só é chamado na transição para "no limite", nunca por polling.
func (c *Controller) blockLocked() {
	c.blocked = true

	pending := make([]<-chan struct{}, 0, len(c.active))
	for _, done := range c.active {
		pending = append(pending, done)
	}

	// o timer começa junto com o bloqueio: pausa e drenagem correm em paralelo.
	var pause <-chan time.Time
	if c.minPauseTime > 0 {
		pause = c.clock.After(c.minPauseTime)
	}

	c.log.Debugf("admission blocked: inFlight=%d queued=%d minPause=%s", len(pending), len(c.queue), c.minPauseTime)

	go c.awaitUnblock(pending, pause)
}

func (c *Controller) awaitUnblock(pending []<-chan struct{}, pause <-chan time.Time) {
	for _, done := range pending {
		<-done
	}
	if pause != nil {
		<-pause
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocked = false
	c.drainLocked()
}

// drainLocked admite até maxInFlight pedidos da fila, em ordem de chegada.
func (c *Controller) drainLocked() {
	n := len(c.queue)
	if n == 0 {
		c.log.Debug("admission unblocked, queue empty")
		return
	}
	if n > c.maxInFlight {
		n = c.maxInFlight
	}

	batch := c.queue[:n]
	rest := make([]*waiter, len(c.queue)-n)
	copy(rest, c.queue[n:])
	c.queue = rest

	for _, w := range batch {
		c.admitLocked(w.token)
		close(w.ready)
	}

	c.log.Debugf("admission drained: admitted=%d queued=%d", n, len(c.queue))

	if len(c.active) >= c.maxInFlight {
		c.blockLocked()
	}
}

func (c *Controller) removeWaiterLocked(w *waiter) {
	for i, q := range c.queue {
		if q == w {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}
