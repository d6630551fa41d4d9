package review

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"github.com/smith3v/flashcard-trainer/pkg/srs"
	"github.com/smith3v/flashcard-trainer/pkg/store"
)

// Phase is the session cursor: the primary pass over due cards, then the
// reinforcement pass over the again queue. The transition is one-way; only a
// new session starts back in the main phase.
type Phase string

const (
	PhaseMain  Phase = "main"
	PhaseAgain Phase = "again"
)

// againEntry defers a failed card. remainingSkips counts down reviews of
// other cards before this one becomes eligible again.
type againEntry struct {
	cardID         string
	remainingSkips int
}

type Session struct {
	phase            Phase
	againQueue       []againEntry
	currentCardID    string
	currentToken     string
	currentMessageID int
	revealed         bool
	lastActivityAt   time.Time
	reviewedCount    int
}

// Snapshot is a copy of the mutable prompt state, used by handlers to
// validate callbacks against the card actually on screen.
type Snapshot struct {
	CardID     string
	Token      string
	MessageID  int
	Revealed   bool
	Phase      Phase
	AgainCount int
	Reviewed   int
}

const (
	SessionInactivityTimeout = 24 * time.Hour
	SessionSweeperInterval   = 10 * time.Minute
)

// Manager owns the per-learner review sessions. It decides which card to
// present next and applies graded reviews through the scheduler and the card
// store. All session state lives in memory; nothing about the again queue is
// ever persisted.
type Manager struct {
	mu       sync.Mutex
	cards    store.CardStore
	selector *Selector
	sessions map[string]*Session
	now      func() time.Time
	step     func() int
}

// NewManager builds a manager. now and step are injectable for tests; step
// defaults to a random pick of 2 or 3 intervening reviews before a
// re-deferred card comes back.
func NewManager(cards store.CardStore, selector *Selector, now func() time.Time, step func() int) *Manager {
	if now == nil {
		now = time.Now
	}
	if step == nil {
		step = func() int { return 2 + rand.Intn(2) }
	}
	return &Manager{
		cards:    cards,
		selector: selector,
		sessions: make(map[string]*Session),
		now:      now,
		step:     step,
	}
}

var DefaultManager *Manager

func SetDefaultManager(m *Manager) {
	DefaultManager = m
}

// EnsureDeck initializes the learner's starter deck when they own no cards.
func (m *Manager) EnsureDeck(userID string) ([]db.Flashcard, error) {
	return m.cards.InitializeDeck(userID)
}

// StartOrRestart begins a fresh session for the learner, discarding any
// previous queue state.
func (m *Manager) StartOrRestart(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &Session{
		phase:          PhaseMain,
		lastActivityAt: m.now(),
	}
}

// NextCard returns the next card to present together with its prompt token,
// or nil when the learner is caught up. In the main phase every queued card
// is excluded; in the again phase only queued cards whose spacing has run
// out are eligible. When spacing blocks the whole queue the skips are
// cleared and the selection retried once, so a non-empty queue never stalls
// the session.
func (m *Manager) NextCard(userID string) (*db.Flashcard, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.ensureSessionLocked(userID)
	session.lastActivityAt = m.now()

	var card *db.Flashcard
	var err error

	if session.phase == PhaseMain {
		card, err = m.selector.NextCard(userID, queuedIDs(session), nil)
		if err != nil {
			return nil, "", err
		}
		if card == nil && len(session.againQueue) > 0 {
			session.phase = PhaseAgain
		}
	}

	if session.phase == PhaseAgain && card == nil {
		card, err = m.selector.NextCard(userID, blockedIDs(session), queuedIDs(session))
		if err != nil {
			return nil, "", err
		}
		if card == nil && len(blockedIDs(session)) > 0 {
			for i := range session.againQueue {
				session.againQueue[i].remainingSkips = 0
			}
			card, err = m.selector.NextCard(userID, nil, queuedIDs(session))
			if err != nil {
				return nil, "", err
			}
		}
	}

	if card == nil {
		session.currentCardID = ""
		session.currentToken = ""
		session.currentMessageID = 0
		session.revealed = false
		return nil, "", nil
	}

	session.currentCardID = card.ID
	session.currentToken = newToken()
	session.currentMessageID = 0
	session.revealed = false
	return card, session.currentToken, nil
}

// SubmitReview grades the current card: the scheduler computes the new card
// state, the store persists it, and only then is the again queue updated. A
// failed write leaves the queue exactly as it was so the same grade can be
// retried.
func (m *Manager) SubmitReview(userID, cardID string, grade srs.Grade) (db.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.ensureSessionLocked(userID)
	now := m.now()
	session.lastActivityAt = now

	card, err := m.cards.GetByID(cardID)
	if err != nil {
		return db.Flashcard{}, err
	}

	result, err := srs.Compute(card, grade, now)
	if err != nil {
		return db.Flashcard{}, err
	}

	card.Interval = result.Interval
	card.RepetitionCount = result.RepetitionCount
	card.EaseFactor = result.EaseFactor
	card.NextReviewDate = result.NextReviewDate
	card.LastReviewDate = now

	updated, err := m.cards.Update(card)
	if err != nil {
		return db.Flashcard{}, err
	}

	switch {
	case grade == srs.GradeAgain && session.phase == PhaseMain:
		// Queued for the reinforcement pass, but not before the main pass
		// is finished. No spacing tick in the main phase.
		addOrResetLocked(session, cardID, 0)
	case grade == srs.GradeAgain && session.phase == PhaseAgain:
		addOrResetLocked(session, cardID, m.step())
		tickLocked(session, cardID)
	case session.phase == PhaseAgain:
		removeLocked(session, cardID)
		tickLocked(session, "")
	}

	session.reviewedCount++
	return updated, nil
}

// CurrentCard loads the card currently on screen from the store.
func (m *Manager) CurrentCard(userID string) (db.Flashcard, error) {
	m.mu.Lock()
	session := m.sessions[userID]
	var cardID string
	if session != nil {
		cardID = session.currentCardID
	}
	m.mu.Unlock()

	if cardID == "" {
		return db.Flashcard{}, store.ErrNotFound
	}
	return m.cards.GetByID(cardID)
}

// Snapshot returns the current prompt state for callback validation.
func (m *Manager) Snapshot(userID string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil || session.currentCardID == "" {
		return Snapshot{}, false
	}
	return Snapshot{
		CardID:     session.currentCardID,
		Token:      session.currentToken,
		MessageID:  session.currentMessageID,
		Revealed:   session.revealed,
		Phase:      session.phase,
		AgainCount: len(session.againQueue),
		Reviewed:   session.reviewedCount,
	}, true
}

// SetCurrentMessageID binds the sent prompt message to the current card.
func (m *Manager) SetCurrentMessageID(userID string, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil {
		return
	}
	session.currentMessageID = messageID
}

// MarkRevealed flips the current card. A stale token is rejected so a
// superseded prompt cannot act on a newer card.
func (m *Manager) MarkRevealed(userID, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil || session.currentToken != token {
		return false
	}
	session.revealed = true
	return true
}

// Phase reports the session's current phase.
func (m *Manager) Phase(userID string) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil {
		return PhaseMain
	}
	return session.phase
}

// AgainCount reports how many cards are waiting in the again queue.
func (m *Manager) AgainCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil {
		return 0
	}
	return len(session.againQueue)
}

func (m *Manager) End(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *Manager) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(SessionSweeperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepInactive(m.now())
		}
	}
}

func (m *Manager) SweepInactive(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, session := range m.sessions {
		if session == nil || now.Sub(session.lastActivityAt) > SessionInactivityTimeout {
			logger.Debug("sweeping inactive review session", "user_id", userID)
			delete(m.sessions, userID)
		}
	}
}

func (m *Manager) ensureSessionLocked(userID string) *Session {
	session := m.sessions[userID]
	if session == nil {
		session = &Session{
			phase:          PhaseMain,
			lastActivityAt: m.now(),
		}
		m.sessions[userID] = session
	}
	return session
}

func queuedIDs(session *Session) []string {
	ids := make([]string, 0, len(session.againQueue))
	for _, entry := range session.againQueue {
		ids = append(ids, entry.cardID)
	}
	return ids
}

func blockedIDs(session *Session) []string {
	var ids []string
	for _, entry := range session.againQueue {
		if entry.remainingSkips > 0 {
			ids = append(ids, entry.cardID)
		}
	}
	return ids
}

// addOrResetLocked enqueues a card or, if it is already queued, raises its
// wait to the larger of the existing and new skip counts. A pending wait is
// never shortened by re-enqueueing.
func addOrResetLocked(session *Session, cardID string, skips int) {
	for i := range session.againQueue {
		if session.againQueue[i].cardID == cardID {
			if skips > session.againQueue[i].remainingSkips {
				session.againQueue[i].remainingSkips = skips
			}
			return
		}
	}
	session.againQueue = append(session.againQueue, againEntry{cardID: cardID, remainingSkips: skips})
}

func removeLocked(session *Session, cardID string) {
	filtered := session.againQueue[:0]
	for _, entry := range session.againQueue {
		if entry.cardID != cardID {
			filtered = append(filtered, entry)
		}
	}
	session.againQueue = filtered
}

// tickLocked advances the spacing clock: every queued card except the one
// just answered moves one review closer to reappearing.
func tickLocked(session *Session, exceptID string) {
	for i := range session.againQueue {
		if session.againQueue[i].cardID == exceptID {
			continue
		}
		if session.againQueue[i].remainingSkips > 0 {
			session.againQueue[i].remainingSkips--
		}
	}
}

func newToken() string {
	return fmt.Sprintf("%x", rand.Int63())
}
