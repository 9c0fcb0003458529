package bot

import (
	"encoding/json"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/raine/telegram-room-bot/internal/listing"
)

const maxSummaryLength = 3500

// renderGuided returns the card of the current wizard screen.
func renderGuided(s Guided) (string, tgbotapi.InlineKeyboardMarkup) {
	d := s.Draft
	switch s.Step {
	case StepTypeAudience:
		return typeAudienceText(d), typeAudienceKeyboard(d)
	case StepLocation:
		return MsgGuidedLocation, cancelKeyboard()
	case StepBudgetFurnishing:
		switch s.Stage {
		case StageDeposit:
			return formatReplyText(MsgGuidedDeposit, amountText(d.Deposit)), depositKeyboard()
		case StageFurnishing:
			return formatReplyText(MsgGuidedFurnish, furnishedLabel(d.Furnished)), furnishingKeyboard(d.Furnished)
		default:
			return formatReplyText(MsgGuidedRent, amountText(d.Price)), rentKeyboard()
		}
	case StepRules:
		return MsgGuidedRules, rulesKeyboard(d.Rules)
	case StepDetails:
		return MsgGuidedDetails, cancelKeyboard()
	default:
		return summaryText(d), confirmKeyboard()
	}
}

func typeAudienceText(d listing.Draft) string {
	if d.UnitType == "" && d.Audience == "" {
		return MsgGuidedIntro
	}
	unit, audience := "—", "—"
	if d.UnitType != "" {
		unit = unitLabel(d.UnitType)
	}
	if d.Audience != "" {
		audience = audienceLabel(d.Audience)
	}
	return formatReplyText(MsgGuidedTypeAud, unit, audience)
}

func amountText(v *int) string {
	if v == nil {
		return "—"
	}
	return "₹" + listing.FormatINR(*v)
}

type draftSummary struct {
	UnitType    *string      `json:"unitType"`
	Audience    *string      `json:"audience"`
	AreaText    *string      `json:"areaText"`
	Price       *int         `json:"price"`
	Deposit     *int         `json:"deposit"`
	Furnished   *string      `json:"furnished"`
	Rules       rulesSummary `json:"rules"`
	Description *string      `json:"description"`
}

type rulesSummary struct {
	CouplesAllowed   bool `json:"couplesAllowed"`
	BachelorsAllowed bool `json:"bachelorsAllowed"`
	PetsAllowed      bool `json:"petsAllowed"`
	ParkingAvailable bool `json:"parkingAvailable"`
	Restrictions     bool `json:"restrictions"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// summaryText renders the draft as indented JSON inside a code block.
func summaryText(d listing.Draft) string {
	summary := draftSummary{
		UnitType:  optional(string(d.UnitType)),
		Audience:  optional(string(d.Audience)),
		AreaText:  optional(d.AreaText),
		Price:     d.Price,
		Deposit:   d.Deposit,
		Furnished: optional(string(d.Furnished)),
		Rules: rulesSummary{
			CouplesAllowed:   d.Rules.CouplesAllowed,
			BachelorsAllowed: d.Rules.BachelorsAllowed,
			PetsAllowed:      d.Rules.PetsAllowed,
			ParkingAvailable: d.Rules.ParkingAvailable,
			Restrictions:     d.Rules.Restrictions,
		},
		Description: optional(d.Description),
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		data = []byte("{}")
	}
	body := listing.Truncate(string(data), maxSummaryLength)
	return formatReplyText(MsgGuidedSummary, html.EscapeString(body))
}
