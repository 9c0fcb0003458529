package bot

import (
	"slices"
	"sync"

	"github.com/raine/telegram-room-bot/internal/listing"
)

// SessionKind tells which conversational mode a chat is in.
type SessionKind int

const (
	KindIdle SessionKind = iota
	KindAwaitingQuickText
	KindAwaitingImages
	KindGuided
)

func (k SessionKind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindAwaitingQuickText:
		return "awaiting_quick_text"
	case KindAwaitingImages:
		return "awaiting_images"
	case KindGuided:
		return "guided"
	default:
		return "unknown"
	}
}

// Session is the conversational state of one chat. It is implemented only
// by the types in this file.
type Session interface {
	Kind() SessionKind
	isSession()
}

type Idle struct{}

type AwaitingQuickText struct{}

// AwaitingImages collects media for a listing that was just created from
// text. Pending holds single items not yet persisted.
type AwaitingImages struct {
	ListingID     string
	UploadedCount int
	Pending       []listing.MediaItem
	ControlMsgID  int
}

// GuidedStep is the current screen of the guided wizard.
type GuidedStep int

const (
	StepTypeAudience GuidedStep = iota
	StepLocation
	StepBudgetFurnishing
	StepRules
	StepDetails
	StepConfirm
)

func (s GuidedStep) String() string {
	switch s {
	case StepTypeAudience:
		return "type_audience"
	case StepLocation:
		return "location"
	case StepBudgetFurnishing:
		return "budget_furnishing"
	case StepRules:
		return "rules"
	case StepDetails:
		return "details"
	case StepConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// BudgetStage is the sub-screen of StepBudgetFurnishing.
type BudgetStage int

const (
	StageRent BudgetStage = iota
	StageDeposit
	StageFurnishing
)

type Guided struct {
	Step         GuidedStep
	Stage        BudgetStage
	Draft        listing.Draft
	ControlMsgID int
}

func (Idle) Kind() SessionKind              { return KindIdle }
func (AwaitingQuickText) Kind() SessionKind { return KindAwaitingQuickText }
func (AwaitingImages) Kind() SessionKind    { return KindAwaitingImages }
func (Guided) Kind() SessionKind            { return KindGuided }

func (Idle) isSession()              {}
func (AwaitingQuickText) isSession() {}
func (AwaitingImages) isSession()    {}
func (Guided) isSession()            {}

// SessionRegistry maps chat ids to sessions. Chats without an entry are Idle.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[int64]Session)}
}

// Get returns a copy of the session of chatID.
func (r *SessionRegistry) Get(chatID int64) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		return Idle{}
	}
	return clone(s)
}

// Set replaces the session of chatID. Setting Idle removes the entry.
func (r *SessionRegistry) Set(chatID int64, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == nil || s.Kind() == KindIdle {
		delete(r.sessions, chatID)
		return
	}
	r.sessions[chatID] = clone(s)
}

func clone(s Session) Session {
	switch v := s.(type) {
	case AwaitingImages:
		v.Pending = slices.Clone(v.Pending)
		return v
	case Guided:
		v.Draft.Price = copyInt(v.Draft.Price)
		v.Draft.Deposit = copyInt(v.Draft.Deposit)
		return v
	default:
		return s
	}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
