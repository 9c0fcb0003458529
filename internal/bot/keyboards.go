package bot

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/raine/telegram-room-bot/internal/listing"
)

// Callback data. Prefixes end with ":" and are followed by an argument.
const (
	cbPostQuick     = "post:quick"
	cbPostGuided    = "post:guided"
	cbAddPhotos     = "addpics:"
	cbSkipPhotos    = "skip:"
	cbImagesDone    = "images:done:"
	cbImagesDiscard = "images:discard:"
	cbImagesMore    = "images:more:"

	cbGuidedPrefix = "g:"
	gUnit          = "unit:"
	gAudience      = "aud:"
	gRule          = "rule:"
	gRentSet       = "rent:set:"
	gRentAdjust    = "rent:adj:"
	gRentDone      = "rent:done"
	gDepositSet    = "dep:set:"
	gDepositAdjust = "dep:adj:"
	gDepositDone   = "dep:done"
	gFurnishingSet = "furn:set:"
	gNext          = "next"
	gBack          = "back"
	gCancel        = "cancel"
	gEdit          = "edit"
	gSave          = "save"
)

// Deposit modes.
const (
	depositNone = "none"
	deposit1x   = "1x"
	deposit2x   = "2x"
	deposit3x   = "3x"
	depositSame = "same"
)

// Rule toggles.
const (
	ruleCouples      = "couples"
	ruleBachelors    = "bachelors"
	rulePets         = "pets"
	ruleParking      = "parking"
	ruleRestrictions = "restrictions"
)

var rentPresets = []int{5000, 8000, 10000, 12000, 15000, 18000, 20000, 25000, 30000}

var adjustSteps = []int{-5000, -1000, 1000, 5000}

func guidedData(data string) string {
	return cbGuidedPrefix + data
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func selected(label string, on bool) string {
	if on {
		return BtnSelectedPrefix + label
	}
	return label
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(MenuBrowse), tgbotapi.NewKeyboardButton(MenuPost)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(MenuBoosted), tgbotapi.NewKeyboardButton(MenuWishlist)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(MenuMyAds), tgbotapi.NewKeyboardButton(MenuCredits)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(MenuSupport)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func postChooserKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button(BtnQuick, cbPostQuick)),
		tgbotapi.NewInlineKeyboardRow(button(BtnGuided, cbPostGuided)),
	)
}

func textSavedKeyboard(listingID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button(BtnAddPhotos, cbAddPhotos+listingID)),
		tgbotapi.NewInlineKeyboardRow(button(BtnSkipPhotos, cbSkipPhotos+listingID)),
	)
}

func imagesKeyboard(listingID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button(BtnImagesDone, cbImagesDone+listingID),
			button(BtnImagesDiscard, cbImagesDiscard+listingID),
		),
		tgbotapi.NewInlineKeyboardRow(button(BtnImagesMore, cbImagesMore+listingID)),
	)
}

func cancelRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button(BtnCancel, guidedData(gCancel)))
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(cancelRow())
}

func typeAudienceKeyboard(d listing.Draft) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, u := range listing.UnitTypes {
		row = append(row, button(selected(unitLabel(u), d.UnitType == u), guidedData(gUnit+string(u))))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	row = nil
	for _, a := range listing.Audiences {
		row = append(row, button(selected(audienceLabel(a), d.Audience == a), guidedData(gAudience+string(a))))
	}
	rows = append(rows, row)

	if d.UnitType != "" && d.Audience != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(BtnNext, guidedData(gNext))))
	}
	rows = append(rows, cancelRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adjustRow(prefix string) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(adjustSteps))
	for _, step := range adjustSteps {
		label := strconv.Itoa(step/1000) + "k"
		if step > 0 {
			label = "+" + label
		}
		row = append(row, button(label, guidedData(prefix+strconv.Itoa(step))))
	}
	return row
}

func rentKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, p := range rentPresets {
		row = append(row, button("₹"+listing.FormatINR(p), guidedData(gRentSet+strconv.Itoa(p))))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		adjustRow(gRentAdjust),
		tgbotapi.NewInlineKeyboardRow(button(BtnDone, guidedData(gRentDone))),
		cancelRow(),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func depositKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button(BtnDepositNone, guidedData(gDepositSet+depositNone)),
			button("1×", guidedData(gDepositSet+deposit1x)),
			button("2×", guidedData(gDepositSet+deposit2x)),
			button("3×", guidedData(gDepositSet+deposit3x)),
		),
		tgbotapi.NewInlineKeyboardRow(button(BtnDepositSame, guidedData(gDepositSet+depositSame))),
		adjustRow(gDepositAdjust),
		tgbotapi.NewInlineKeyboardRow(button(BtnBack, guidedData(gBack)), button(BtnDone, guidedData(gDepositDone))),
		cancelRow(),
	)
}

func furnishingKeyboard(current listing.FurnishedType) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(listing.FurnishedTypes))
	for _, f := range listing.FurnishedTypes {
		row = append(row, button(selected(furnishedLabel(f), current == f), guidedData(gFurnishingSet+string(f))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(button(BtnBack, guidedData(gBack)), button(BtnNext, guidedData(gNext))),
		cancelRow(),
	)
}

func rulesKeyboard(r listing.Rules) tgbotapi.InlineKeyboardMarkup {
	toggle := func(label string, on bool, key string) []tgbotapi.InlineKeyboardButton {
		mark := "❌ "
		if on {
			mark = "✅ "
		}
		return tgbotapi.NewInlineKeyboardRow(button(mark+label, guidedData(gRule+key)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		toggle("Couples allowed", r.CouplesAllowed, ruleCouples),
		toggle("Bachelors allowed", r.BachelorsAllowed, ruleBachelors),
		toggle("Pets allowed", r.PetsAllowed, rulePets),
		toggle("Parking available", r.ParkingAvailable, ruleParking),
		toggle("Restrictions apply", r.Restrictions, ruleRestrictions),
		tgbotapi.NewInlineKeyboardRow(button(BtnNext, guidedData(gNext))),
		cancelRow(),
	)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button(BtnSave, guidedData(gSave)), button(BtnEdit, guidedData(gEdit))),
		cancelRow(),
	)
}

func unitLabel(u listing.UnitType) string {
	switch u {
	case listing.UnitTypeSingleRoom:
		return "Single room"
	case listing.UnitTypeFlatmates:
		return "Flatmates"
	case listing.UnitTypeHostel:
		return "Hostel"
	default:
		return strings.ToUpper(string(u))
	}
}

func audienceLabel(a listing.Audience) string {
	switch a {
	case listing.AudienceFamily:
		return "Family"
	case listing.AudienceBachelors:
		return "Bachelors"
	case listing.AudienceCouples:
		return "Couples"
	case listing.AudienceAnyone:
		return "Anyone"
	default:
		return string(a)
	}
}

func furnishedLabel(f listing.FurnishedType) string {
	switch f {
	case listing.Unfurnished:
		return "Unfurnished"
	case listing.SemiFurnished:
		return "Semi-furnished"
	case listing.Furnished:
		return "Furnished"
	default:
		return string(f)
	}
}
