package bot

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/raine/telegram-room-bot/internal/listing"
)

// Wizard screens. The budget step has one screen per sub-stage.
const (
	wsTypeAudience = "type_audience"
	wsLocation     = "location"
	wsRent         = "rent"
	wsDeposit      = "deposit"
	wsFurnishing   = "furnishing"
	wsRules        = "rules"
	wsDetails      = "details"
	wsConfirm      = "confirm"
)

// Wizard events.
const (
	evNext        = "next"
	evBack        = "back"
	evLocationSet = "location_set"
	evRentDone    = "rent_done"
	evDepositDone = "deposit_done"
	evDetailsSet  = "details_set"
	evEdit        = "edit"
)

var wizardEvents = fsm.Events{
	{Name: evNext, Src: []string{wsTypeAudience}, Dst: wsLocation},
	{Name: evNext, Src: []string{wsFurnishing}, Dst: wsRules},
	{Name: evNext, Src: []string{wsRules}, Dst: wsDetails},
	{Name: evLocationSet, Src: []string{wsLocation}, Dst: wsRent},
	{Name: evRentDone, Src: []string{wsRent}, Dst: wsDeposit},
	{Name: evDepositDone, Src: []string{wsDeposit}, Dst: wsFurnishing},
	{Name: evBack, Src: []string{wsDeposit}, Dst: wsRent},
	{Name: evBack, Src: []string{wsFurnishing}, Dst: wsDeposit},
	{Name: evDetailsSet, Src: []string{wsDetails}, Dst: wsConfirm},
	{Name: evEdit, Src: []string{wsConfirm}, Dst: wsTypeAudience},
}

var errTypeAudienceIncomplete = errors.New("unit type and audience are required")

// newWizardFSM builds a machine positioned at the screen of s. The draft is
// passed as the first event argument for guards.
func newWizardFSM(s Guided) *fsm.FSM {
	return fsm.NewFSM(wizardState(s), wizardEvents, fsm.Callbacks{
		"before_" + evNext: func(_ context.Context, e *fsm.Event) {
			if e.Src != wsTypeAudience || len(e.Args) == 0 {
				return
			}
			d, _ := e.Args[0].(listing.Draft)
			if d.UnitType == "" || d.Audience == "" {
				e.Cancel(errTypeAudienceIncomplete)
			}
		},
	})
}

// advanceWizard fires event on the wizard and returns s moved to the
// resulting screen. It reports false when event is not valid on the current
// screen or a guard rejects it.
func advanceWizard(ctx context.Context, s Guided, event string) (Guided, bool) {
	machine := newWizardFSM(s)
	if err := machine.Event(ctx, event, s.Draft); err != nil {
		return s, false
	}
	setWizardState(&s, machine.Current())
	return s, true
}

func wizardState(s Guided) string {
	switch s.Step {
	case StepTypeAudience:
		return wsTypeAudience
	case StepLocation:
		return wsLocation
	case StepBudgetFurnishing:
		switch s.Stage {
		case StageDeposit:
			return wsDeposit
		case StageFurnishing:
			return wsFurnishing
		default:
			return wsRent
		}
	case StepRules:
		return wsRules
	case StepDetails:
		return wsDetails
	default:
		return wsConfirm
	}
}

func setWizardState(s *Guided, state string) {
	s.Stage = StageRent
	switch state {
	case wsTypeAudience:
		s.Step = StepTypeAudience
	case wsLocation:
		s.Step = StepLocation
	case wsRent:
		s.Step = StepBudgetFurnishing
	case wsDeposit:
		s.Step, s.Stage = StepBudgetFurnishing, StageDeposit
	case wsFurnishing:
		s.Step, s.Stage = StepBudgetFurnishing, StageFurnishing
	case wsRules:
		s.Step = StepRules
	case wsDetails:
		s.Step = StepDetails
	case wsConfirm:
		s.Step = StepConfirm
	}
}
