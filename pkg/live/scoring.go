package live

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
)

// ScoringUpdate is one live scoring message for an event.
type ScoringUpdate struct {
	EventID   string           `json:"event_id"`
	AthleteID string           `json:"athlete_id"`
	Bib       string           `json:"bib,omitempty"`
	Run       int              `json:"run,omitempty"`
	Score     *decimal.Decimal `json:"score,omitempty"`
	Status    string           `json:"status,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

const scoringSubjectPrefix = "fwt.scoring."

// ScoringProxy receives live scoring messages from NATS and fans them out
// to dashboard subscribers per event.
type ScoringProxy struct {
	conn    *nats.Conn
	l       *log.Logger
	mutex   sync.Mutex
	events  map[string]*eventChannel
	sub     *nats.Subscription
}

type eventChannel struct {
	source chan ScoringUpdate
	bcst   BroadcastServer[ScoringUpdate]
	subs   int
}

type ProxyOption func(*ScoringProxy)

func WithLogger(l *log.Logger) ProxyOption {
	return func(p *ScoringProxy) { p.l = l }
}

func NewScoringProxy(conn *nats.Conn, opts ...ProxyOption) (*ScoringProxy, error) {
	ret := &ScoringProxy{
		conn:   conn,
		l:      log.Default().Named("live"),
		events: make(map[string]*eventChannel),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if err := ret.setupSubscription(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *ScoringProxy) setupSubscription() error {
	sub, err := p.conn.Subscribe(scoringSubjectPrefix+">", func(msg *nats.Msg) {
		var update ScoringUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			p.l.Warn("discarding invalid scoring message",
				log.String("subject", msg.Subject), log.ErrorField(err))
			return
		}
		if update.EventID == "" {
			update.EventID = msg.Subject[len(scoringSubjectPrefix):]
		}
		p.dispatch(&update)
	})
	if err != nil {
		return err
	}
	p.sub = sub
	return nil
}

// dispatch forwards an update to the event's broadcast server. Updates
// for events without subscribers are dropped so that garbage subjects or
// long gone events cannot grow the event map.
func (p *ScoringProxy) dispatch(update *ScoringUpdate) {
	p.mutex.Lock()
	ec, ok := p.events[update.EventID]
	p.mutex.Unlock()
	if !ok {
		return
	}
	select {
	case ec.source <- *update:
	default:
		p.l.Warn("scoring channel full, dropping update",
			log.String("event", update.EventID))
	}
}

// Subscribe returns a channel of updates for the event plus a cancel
// func. The event's broadcast server is created on first subscription and
// torn down when the last subscriber cancels.
func (p *ScoringProxy) Subscribe(eventID string) (<-chan ScoringUpdate, func()) {
	p.mutex.Lock()
	ec, ok := p.events[eventID]
	if !ok {
		ec = &eventChannel{source: make(chan ScoringUpdate, 64)}
		ec.bcst = NewBroadcastServer(eventID,
			fmt.Sprintf("scoring-%s", eventID), ec.source)
		p.events[eventID] = ec
	}
	ec.subs++
	p.mutex.Unlock()
	ch := ec.bcst.Subscribe()
	return ch, func() {
		ec.bcst.CancelSubscription(ch)
		p.mutex.Lock()
		defer p.mutex.Unlock()
		ec.subs--
		if ec.subs <= 0 && p.events[eventID] == ec {
			ec.bcst.Close()
			delete(p.events, eventID)
		}
	}
}

func (p *ScoringProxy) Close() {
	if p.sub != nil {
		if err := p.sub.Unsubscribe(); err != nil {
			p.l.Warn("unsubscribe failed", log.ErrorField(err))
		}
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for _, ec := range p.events {
		ec.bcst.Close()
	}
	p.events = make(map[string]*eventChannel)
}
