package listing

import "strconv"

// Draft is a listing being assembled by the guided wizard. Zero values mean
// "not answered yet"; Price and Deposit are nil until set.
type Draft struct {
	UnitType    UnitType
	Audience    Audience
	AreaText    string
	Price       *int
	Deposit     *int
	Furnished   FurnishedType
	Rules       Rules
	Description string
	Title       string
}

// NewDraft returns an empty draft with default furnishing and rules.
func NewDraft() Draft {
	return Draft{
		Furnished: Unfurnished,
		Rules:     DefaultRules(),
	}
}

// IntPtr returns a pointer to a copy of v.
func IntPtr(v int) *int {
	return &v
}

// MessageTag is the tag recording the Telegram message a listing came from.
func MessageTag(messageID int) string {
	return "tg:msg=" + strconv.Itoa(messageID)
}
