package bot

import (
	"context"
	"errors"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-room-bot/internal/intake"
	"github.com/raine/telegram-room-bot/internal/listing"
)

func (b *Bot) startGuided(chatID int64) {
	b.deleteMessage(chatID, controlMessageOf(b.sessions.Get(chatID)))
	b.showGuided(chatID, Guided{Step: StepTypeAudience, Draft: listing.NewDraft()}, true)
}

// showGuided stores s and draws its card, either in place of the current
// control message or as a new message replacing it.
func (b *Bot) showGuided(chatID int64, s Guided, replace bool) {
	b.setSession(chatID, s)

	text, markup := renderGuided(s)
	var id int
	if replace {
		id = b.replaceCard(chatID, s.ControlMsgID, text, &markup)
	} else {
		id = b.editOrReply(chatID, s.ControlMsgID, text, &markup)
	}
	if id != s.ControlMsgID {
		s.ControlMsgID = id
		b.sessions.Set(chatID, s)
	}
}

// handleGuidedText takes the answer of the free-text steps. Text sent on
// any other step is ignored.
func (b *Bot) handleGuidedText(ctx context.Context, chatID int64, s Guided, m *tgbotapi.Message) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}

	var event string
	switch s.Step {
	case StepLocation:
		s.Draft.AreaText = text
		event = evLocationSet
	case StepDetails:
		s.Draft.Description = text
		event = evDetailsSet
	default:
		log.Debug().Int64("chatId", chatID).Str("step", s.Step.String()).Msg("ignoring text on button step")
		return
	}
	s, ok := advanceWizard(ctx, s, event)
	if !ok {
		return
	}
	b.showGuided(chatID, s, true)
}

func (b *Bot) handleGuidedCallback(ctx context.Context, chatID int64, cq *tgbotapi.CallbackQuery, action string) {
	s, ok := b.sessions.Get(chatID).(Guided)
	if !ok {
		log.Debug().Int64("chatId", chatID).Str("action", action).Msg("ignoring guided button outside wizard")
		return
	}
	if s.ControlMsgID == 0 {
		s.ControlMsgID = callbackMessageID(cq)
	}

	next, replace, handled := b.applyGuidedAction(ctx, chatID, cq, s, action)
	if !handled {
		log.Debug().Int64("chatId", chatID).Str("step", s.Step.String()).Str("action", action).Msg("ignoring stale guided button")
		return
	}
	if next != nil {
		b.showGuided(chatID, *next, replace)
	}
}

// applyGuidedAction computes the wizard state after action. A nil next
// state with handled set means the action needed no redraw or finished the
// wizard itself.
func (b *Bot) applyGuidedAction(ctx context.Context, chatID int64, cq *tgbotapi.CallbackQuery, s Guided, action string) (next *Guided, replace bool, handled bool) {
	switch {
	case action == gCancel:
		b.cancelGuided(chatID, s)
		return nil, false, true

	case strings.HasPrefix(action, gUnit) && s.Step == StepTypeAudience:
		u, ok := listing.ParseUnitType(strings.TrimPrefix(action, gUnit))
		if !ok {
			return nil, false, false
		}
		if s.Draft.UnitType == u {
			return nil, false, true
		}
		s.Draft.UnitType = u
		return &s, false, true

	case strings.HasPrefix(action, gAudience) && s.Step == StepTypeAudience:
		a, ok := listing.ParseAudience(strings.TrimPrefix(action, gAudience))
		if !ok {
			return nil, false, false
		}
		if s.Draft.Audience == a {
			return nil, false, true
		}
		s.Draft.Audience = a
		return &s, false, true

	case action == gNext:
		return transition(ctx, s, evNext, false)

	case action == gBack:
		return transition(ctx, s, evBack, true)

	case strings.HasPrefix(action, gRentSet) && s.inStage(StageRent):
		v, err := strconv.Atoi(strings.TrimPrefix(action, gRentSet))
		if err != nil || v < 0 {
			return nil, false, false
		}
		return setPrice(s, listing.IntPtr(v))

	case strings.HasPrefix(action, gRentAdjust) && s.inStage(StageRent):
		delta, err := strconv.Atoi(strings.TrimPrefix(action, gRentAdjust))
		if err != nil {
			return nil, false, false
		}
		return setPrice(s, listing.IntPtr(adjustAmount(s.Draft.Price, delta)))

	case action == gRentDone:
		return transition(ctx, s, evRentDone, false)

	case strings.HasPrefix(action, gDepositSet) && s.inStage(StageDeposit):
		deposit, ok := depositForMode(strings.TrimPrefix(action, gDepositSet), s.Draft.Price)
		if !ok {
			return nil, false, false
		}
		return setDeposit(s, deposit)

	case strings.HasPrefix(action, gDepositAdjust) && s.inStage(StageDeposit):
		delta, err := strconv.Atoi(strings.TrimPrefix(action, gDepositAdjust))
		if err != nil {
			return nil, false, false
		}
		return setDeposit(s, listing.IntPtr(adjustAmount(s.Draft.Deposit, delta)))

	case action == gDepositDone:
		if s.Draft.Furnished == "" {
			s.Draft.Furnished = listing.Unfurnished
		}
		return transition(ctx, s, evDepositDone, false)

	case strings.HasPrefix(action, gFurnishingSet) && s.inStage(StageFurnishing):
		f, ok := listing.ParseFurnishedType(strings.TrimPrefix(action, gFurnishingSet))
		if !ok {
			return nil, false, false
		}
		if s.Draft.Furnished == f {
			return nil, false, true
		}
		s.Draft.Furnished = f
		return &s, false, true

	case strings.HasPrefix(action, gRule) && s.Step == StepRules:
		if !toggleRule(&s.Draft.Rules, strings.TrimPrefix(action, gRule)) {
			return nil, false, false
		}
		return &s, false, true

	case action == gEdit:
		next, ok := advanceWizard(ctx, s, evEdit)
		if !ok {
			return nil, false, false
		}
		next.Draft = listing.NewDraft()
		return &next, true, true

	case action == gSave && s.Step == StepConfirm:
		b.saveGuided(ctx, chatID, senderOf(cq.From), s)
		return nil, false, true
	}
	return nil, false, false
}

// transition moves the wizard on event. An event that does not apply to the
// current screen is reported as unhandled.
func transition(ctx context.Context, s Guided, event string, replace bool) (*Guided, bool, bool) {
	next, ok := advanceWizard(ctx, s, event)
	if !ok {
		return nil, false, false
	}
	return &next, replace, true
}

// setPrice and setDeposit ask for a redraw only when the value changed, since
// Telegram rejects an edit that leaves the card as it was.
func setPrice(s Guided, v *int) (*Guided, bool, bool) {
	if sameAmount(s.Draft.Price, v) {
		return nil, false, true
	}
	s.Draft.Price = v
	return &s, false, true
}

func setDeposit(s Guided, v *int) (*Guided, bool, bool) {
	if sameAmount(s.Draft.Deposit, v) {
		return nil, false, true
	}
	s.Draft.Deposit = v
	return &s, false, true
}

func sameAmount(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s Guided) inStage(stage BudgetStage) bool {
	return s.Step == StepBudgetFurnishing && s.Stage == stage
}

// adjustAmount adds delta to the current amount (unset counts as zero) and
// never goes below zero.
func adjustAmount(current *int, delta int) int {
	base := 0
	if current != nil {
		base = *current
	}
	return max(0, base+delta)
}

// depositForMode returns the deposit for a preset mode given the rent.
func depositForMode(mode string, price *int) (*int, bool) {
	switch mode {
	case depositNone:
		return nil, true
	case deposit1x, depositSame:
		if price == nil {
			return nil, true
		}
		return listing.IntPtr(*price), true
	case deposit2x, deposit3x:
		if price == nil || *price == 0 {
			return nil, true
		}
		k := 2
		if mode == deposit3x {
			k = 3
		}
		return listing.IntPtr(*price * k), true
	}
	return nil, false
}

func toggleRule(r *listing.Rules, key string) bool {
	switch key {
	case ruleCouples:
		r.CouplesAllowed = !r.CouplesAllowed
	case ruleBachelors:
		r.BachelorsAllowed = !r.BachelorsAllowed
	case rulePets:
		r.PetsAllowed = !r.PetsAllowed
	case ruleParking:
		r.ParkingAvailable = !r.ParkingAvailable
	case ruleRestrictions:
		r.Restrictions = !r.Restrictions
	default:
		return false
	}
	return true
}

func (b *Bot) cancelGuided(chatID int64, s Guided) {
	b.setSession(chatID, Idle{})
	b.deleteMessage(chatID, s.ControlMsgID)
	b.reply(chatID, MsgGuidedCancel)
}

// saveGuided persists the draft. The session is Idle whatever the outcome.
func (b *Bot) saveGuided(ctx context.Context, chatID int64, sender intake.Sender, s Guided) {
	b.setSession(chatID, Idle{})

	id, err := b.intake.CreateFromGuided(ctx, chatID, sender, s.Draft)
	if err != nil {
		b.deleteMessage(chatID, s.ControlMsgID)
		if errors.Is(err, intake.ErrDuplicateTitle) || errors.Is(err, intake.ErrDuplicatePost) {
			LogError(chatID, "duplicate: %v", err)
			b.reply(chatID, MsgDuplicatePost)
			return
		}
		log.Error().Err(err).Int64("chatId", chatID).Msg("failed to save guided listing")
		LogError(chatID, "%v", err)
		b.reply(chatID, MsgGuidedSaveErr)
		return
	}
	b.replaceCard(chatID, s.ControlMsgID, formatReplyText(MsgGuidedSaved, html.EscapeString(id)), nil)
}

// controlMessageOf returns the control card of s, or 0.
func controlMessageOf(s Session) int {
	switch v := s.(type) {
	case Guided:
		return v.ControlMsgID
	case AwaitingImages:
		return v.ControlMsgID
	default:
		return 0
	}
}
