package bot

import (
	"encoding/json"
	"html"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raine/telegram-room-bot/internal/listing"
)

func (e *testEnv) guided(t *testing.T) Guided {
	t.Helper()
	s, ok := e.session().(Guided)
	require.True(t, ok, "expected guided session, got %s", e.session().Kind())
	return s
}

func (e *testEnv) press(t *testing.T, action string) {
	t.Helper()
	e.send(makeCallbackUpdate(e.guided(t).ControlMsgID, guidedData(action)))
}

// toRent walks the wizard up to the rent screen.
func toRent(t *testing.T, e *testEnv) {
	t.Helper()
	e.send(makeCallbackUpdate(10, cbPostGuided))
	e.press(t, gUnit+"2bhk")
	e.press(t, gAudience+"couples")
	e.press(t, gNext)
	require.Equal(t, StepLocation, e.guided(t).Step)
	e.send(makeUpdateWithMessageText(50, "Powai, Mumbai"))
	require.True(t, e.guided(t).inStage(StageRent))
}

func TestGuided_StartShowsIntroCard(t *testing.T) {
	e := setup(t, time.Hour)

	e.send(makeCallbackUpdate(10, cbPostGuided))

	s := e.guided(t)
	assert.Equal(t, StepTypeAudience, s.Step)
	assert.Equal(t, listing.NewDraft(), s.Draft)
	assert.NotZero(t, s.ControlMsgID)
	assert.Equal(t, MsgGuidedIntro, e.api.lastText())
}

func TestGuided_NextNeedsTypeAndAudience(t *testing.T) {
	e := setup(t, time.Hour)
	e.send(makeCallbackUpdate(10, cbPostGuided))

	e.press(t, gNext)
	assert.Equal(t, StepTypeAudience, e.guided(t).Step)

	e.press(t, gUnit+"pg")
	e.press(t, gNext)
	assert.Equal(t, StepTypeAudience, e.guided(t).Step)

	e.press(t, gAudience+"anyone")
	assert.Equal(t, formatReplyText(MsgGuidedTypeAud, "PG", "Anyone"), e.api.edits()[len(e.api.edits())-1])
	e.press(t, gNext)
	assert.Equal(t, StepLocation, e.guided(t).Step)
}

func TestGuided_ReselectingUnitIsNoop(t *testing.T) {
	e := setup(t, time.Hour)
	e.send(makeCallbackUpdate(10, cbPostGuided))
	e.press(t, gUnit+"2bhk")
	before := e.guided(t)
	calls := e.api.outbound()

	e.press(t, gUnit+"2bhk")

	assert.Equal(t, before, e.guided(t))
	assert.Equal(t, calls, e.api.outbound(), "no redraw for an unchanged selection")
}

func TestGuided_LocationStoredVerbatim(t *testing.T) {
	e := setup(t, time.Hour)
	toRent(t, e)

	s := e.guided(t)
	assert.Equal(t, "Powai, Mumbai", s.Draft.AreaText)
	assert.Equal(t, formatReplyText(MsgGuidedRent, "—"), e.api.lastText())
}

func TestGuided_RentAdjustClampsAtZero(t *testing.T) {
	e := setup(t, time.Hour)
	toRent(t, e)

	e.press(t, gRentAdjust+"-5000")
	require.NotNil(t, e.guided(t).Draft.Price)
	assert.Equal(t, 0, *e.guided(t).Draft.Price)

	e.press(t, gRentSet+"5000")
	e.press(t, gRentAdjust+"-1000")
	assert.Equal(t, 4000, *e.guided(t).Draft.Price)

	e.press(t, gRentAdjust+"-5000")
	assert.Equal(t, 0, *e.guided(t).Draft.Price)

	e.press(t, gRentAdjust+"5000")
	e.press(t, gRentAdjust+"1000")
	assert.Equal(t, 6000, *e.guided(t).Draft.Price)
	assert.Equal(t, formatReplyText(MsgGuidedRent, "₹6,000"), e.api.edits()[len(e.api.edits())-1])
}

func TestGuided_DepositModes(t *testing.T) {
	e := setup(t, time.Hour)
	toRent(t, e)
	e.press(t, gRentSet+"10000")
	e.press(t, gRentDone)
	require.True(t, e.guided(t).inStage(StageDeposit))

	e.press(t, gDepositSet+deposit2x)
	require.NotNil(t, e.guided(t).Draft.Deposit)
	assert.Equal(t, 20000, *e.guided(t).Draft.Deposit)

	e.press(t, gDepositSet+depositNone)
	assert.Nil(t, e.guided(t).Draft.Deposit)

	e.press(t, gDepositSet+depositSame)
	assert.Equal(t, 10000, *e.guided(t).Draft.Deposit)

	e.press(t, gDepositAdjust+"-5000")
	e.press(t, gDepositAdjust+"-5000")
	e.press(t, gDepositAdjust+"-5000")
	assert.Equal(t, 0, *e.guided(t).Draft.Deposit)
}

func TestGuided_UnchangedAmountKeepsSingleCard(t *testing.T) {
	e := setup(t, time.Hour)
	e.api.rejectUnchanged = true
	toRent(t, e)
	card := e.guided(t).ControlMsgID
	require.Equal(t, 1, e.api.live())

	e.press(t, gRentAdjust+"-5000")
	e.press(t, gRentAdjust+"-5000")
	e.press(t, gRentSet+"10000")
	e.press(t, gRentSet+"10000")
	assert.Equal(t, 10000, *e.guided(t).Draft.Price)

	e.press(t, gRentDone)
	e.press(t, gDepositSet+depositNone)
	e.press(t, gDepositSet+depositNone)
	e.press(t, gDepositSet+depositSame)
	e.press(t, gDepositSet+depositSame)

	assert.Equal(t, 1, e.api.live())
	assert.Equal(t, card, e.guided(t).ControlMsgID)
	assert.Equal(t, 10000, *e.guided(t).Draft.Deposit)
}

func TestEditOrReply_NotModifiedKeepsMessage(t *testing.T) {
	e := setup(t, time.Hour)
	e.api.rejectUnchanged = true
	markup := confirmKeyboard()
	id := e.bot.editOrReply(testChatID, 0, "card", &markup)

	again := e.bot.editOrReply(testChatID, id, "card", &markup)

	assert.Equal(t, id, again)
	assert.Len(t, e.api.texts(), 1)
	assert.Equal(t, 1, e.api.live())
}

func TestDepositForMode(t *testing.T) {
	cases := []struct {
		mode  string
		price *int
		want  *int
	}{
		{depositNone, listing.IntPtr(10000), nil},
		{deposit1x, listing.IntPtr(10000), listing.IntPtr(10000)},
		{deposit1x, nil, nil},
		{deposit2x, listing.IntPtr(10000), listing.IntPtr(20000)},
		{deposit3x, listing.IntPtr(9000), listing.IntPtr(27000)},
		{deposit3x, listing.IntPtr(0), nil},
		{deposit2x, nil, nil},
		{depositSame, listing.IntPtr(7000), listing.IntPtr(7000)},
	}
	for _, c := range cases {
		got, ok := depositForMode(c.mode, c.price)
		assert.True(t, ok, c.mode)
		assert.Equal(t, c.want, got, c.mode)
	}

	_, ok := depositForMode("4x", listing.IntPtr(1))
	assert.False(t, ok)
}

func TestGuided_BackAndFurnishing(t *testing.T) {
	e := setup(t, time.Hour)
	toRent(t, e)
	e.press(t, gRentDone)
	e.press(t, gDepositDone)

	s := e.guided(t)
	assert.True(t, s.inStage(StageFurnishing))
	assert.Equal(t, listing.Unfurnished, s.Draft.Furnished)

	e.press(t, gFurnishingSet+"semi")
	assert.Equal(t, listing.SemiFurnished, e.guided(t).Draft.Furnished)
	assert.Equal(t, formatReplyText(MsgGuidedFurnish, "Semi-furnished"), e.api.edits()[len(e.api.edits())-1])

	e.press(t, gBack)
	assert.True(t, e.guided(t).inStage(StageDeposit))
	e.press(t, gBack)
	assert.True(t, e.guided(t).inStage(StageRent))

	// Rent buttons only work on the rent screen.
	e.press(t, gDepositSet+deposit2x)
	assert.Nil(t, e.guided(t).Draft.Deposit)
}

func TestGuided_RulesToggle(t *testing.T) {
	e := setup(t, time.Hour)
	toRent(t, e)
	e.press(t, gRentDone)
	e.press(t, gDepositDone)
	e.press(t, gNext)
	require.Equal(t, StepRules, e.guided(t).Step)

	e.press(t, gRule+ruleCouples)
	e.press(t, gRule+rulePets)
	rules := e.guided(t).Draft.Rules
	assert.True(t, rules.CouplesAllowed)
	assert.False(t, rules.PetsAllowed)
	assert.True(t, rules.BachelorsAllowed)

	e.press(t, gRule+"smoking")
	assert.Equal(t, rules, e.guided(t).Draft.Rules)

	e.press(t, gNext)
	assert.Equal(t, StepDetails, e.guided(t).Step)
}

// toConfirm fills the whole wizard and stops at the summary.
func toConfirm(t *testing.T, e *testEnv) {
	t.Helper()
	toRent(t, e)
	e.press(t, gRentSet+"18000")
	e.press(t, gRentDone)
	e.press(t, gDepositSet+deposit2x)
	e.press(t, gDepositDone)
	e.press(t, gNext)
	e.press(t, gNext)
	e.send(makeUpdateWithMessageText(60, "Sunny flat <near station>, call 98200 00000"))
	require.Equal(t, StepConfirm, e.guided(t).Step)
}

func TestGuided_SummaryIsEscapedJSON(t *testing.T) {
	e := setup(t, time.Hour)
	toConfirm(t, e)

	text := e.api.lastText()
	require.True(t, strings.HasPrefix(text, "📄 <b>Summary</b>\n<code>"))
	body := strings.TrimSuffix(strings.TrimPrefix(text, "📄 <b>Summary</b>\n<code>"), "</code>")
	assert.Contains(t, body, "&lt;near station&gt;")

	raw := html.UnescapeString(body)
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &summary))
	assert.Equal(t, "2bhk", summary["unitType"])
	assert.Equal(t, float64(36000), summary["deposit"])
	assert.Contains(t, raw, "\n  \"audience\": \"couples\"")
}

func TestSummaryText_UnsetFieldsAreNull(t *testing.T) {
	text := summaryText(listing.NewDraft())
	assert.Contains(t, text, `&#34;price&#34;: null`)
	assert.Contains(t, text, `&#34;unitType&#34;: null`)
	assert.Contains(t, text, `&#34;furnished&#34;: &#34;unfurnished&#34;`)
}

func TestGuided_SaveCreatesListing(t *testing.T) {
	e := setup(t, time.Hour)
	toConfirm(t, e)
	card := e.guided(t).ControlMsgID

	e.press(t, gSave)

	assert.Equal(t, KindIdle, e.session().Kind())
	drafts := e.drafts(t)
	require.Len(t, drafts, 1)
	l := drafts[0]
	assert.Equal(t, "2BHK in Powai, Mumbai for couples – ₹18000", l.Title)
	assert.Equal(t, 18000, l.Price)
	require.NotNil(t, l.Deposit)
	assert.Equal(t, 36000, *l.Deposit)
	assert.Equal(t, listing.Unfurnished, l.Furnished)

	assert.Contains(t, e.api.deletes(), card)
	assert.Equal(t, formatReplyText(MsgGuidedSaved, l.ID), e.api.lastText())

	// The same answers again collide on the title.
	toConfirm(t, e)
	e.press(t, gSave)
	assert.Equal(t, MsgDuplicatePost, e.api.lastText())
	assert.Equal(t, KindIdle, e.session().Kind())
	assert.Len(t, e.drafts(t), 1)
}

func TestGuided_EditRestartsFromScratch(t *testing.T) {
	e := setup(t, time.Hour)
	toConfirm(t, e)
	card := e.guided(t).ControlMsgID

	e.press(t, gEdit)

	s := e.guided(t)
	assert.Equal(t, StepTypeAudience, s.Step)
	assert.Equal(t, listing.NewDraft(), s.Draft)
	assert.Contains(t, e.api.deletes(), card)
	assert.NotEqual(t, card, s.ControlMsgID)
	assert.Equal(t, MsgGuidedIntro, e.api.lastText())
}

func TestGuided_CancelFromAnyStep(t *testing.T) {
	e := setup(t, time.Hour)
	toRent(t, e)
	card := e.guided(t).ControlMsgID

	e.press(t, gCancel)

	assert.Equal(t, KindIdle, e.session().Kind())
	assert.Contains(t, e.api.deletes(), card)
	assert.Equal(t, MsgGuidedCancel, e.api.lastText())
	assert.Empty(t, e.drafts(t))
}

func TestGuided_TextOnButtonStepIgnored(t *testing.T) {
	e := setup(t, time.Hour)
	toRent(t, e)
	calls := e.api.outbound()

	e.send(makeUpdateWithMessageText(70, "25000"))

	assert.Equal(t, calls, e.api.outbound())
	assert.Nil(t, e.guided(t).Draft.Price)
}

func TestGuided_MediaGetsGuidance(t *testing.T) {
	e := setup(t, time.Hour)
	e.send(makeCallbackUpdate(10, cbPostGuided))

	e.send(makePhotoUpdate(80, "", "p", ""))

	assert.Equal(t, MsgStartFromPost, e.api.lastText())
	assert.Equal(t, KindGuided, e.session().Kind())
}

func TestGuided_EditFallsBackToNewCard(t *testing.T) {
	e := setup(t, time.Hour)
	e.send(makeCallbackUpdate(10, cbPostGuided))
	old := e.guided(t).ControlMsgID
	e.api.failEdits = true

	e.press(t, gUnit+"1rk")

	assert.NotEqual(t, old, e.guided(t).ControlMsgID)
	assert.Equal(t, formatReplyText(MsgGuidedTypeAud, "1RK", "—"), e.api.lastText())
}

func TestGuided_SaveFailureLeavesIdle(t *testing.T) {
	e := setup(t, time.Hour)
	toConfirm(t, e)
	// Closing the database makes the insert fail.
	require.NoError(t, e.store.Close())

	e.press(t, gSave)

	assert.Equal(t, KindIdle, e.session().Kind())
	assert.Equal(t, MsgGuidedSaveErr, e.api.lastText())
}

