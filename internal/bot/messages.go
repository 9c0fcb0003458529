package bot

// =============================================================================
// Root menu
// =============================================================================

const (
	MenuBrowse   = "Browse 🏠"
	MenuPost     = "Post Ad ➕"
	MenuBoosted  = "Boosted 🔝"
	MenuWishlist = "Wishlist ⭐"
	MenuMyAds    = "My Ads 📂"
	MenuCredits  = "Credits 💳"
	MenuSupport  = "Support 🛟"
)

const (
	MsgWelcome = `
		👋 <b>Welcome to Room Bot</b>
		Your quick hub to post, browse, and manage rental listings.

		Pick an option below to get started ⤵️`
	MsgPostChooser = `
		🧩 <b>Create an Ad</b>
		Choose how you want to create your ad:
		• <b>Paste/Forward Ad ⚡</b> from the next screen and add photos if you want.
		• <b>Guided: Answer Questions 🧠</b> step by step.`
	MsgBrowse   = "🏠 <b>Browse</b>\nComing soon ✨"
	MsgBoosted  = "🔝 <b>Boosted</b>\nNo boosted listings yet."
	MsgWishlist = "⭐ <b>Wishlist</b>\nFeature coming soon!"
	MsgCredits  = "💳 <b>Credits</b>\nLaunching shortly."
	MsgSupport  = "🛟 <b>Support</b>\nMessage here or email <i>support@roombot.local</i>."
	MsgNoAds    = "📂 No ads yet. Use “Post Ad ➕” to create one!"
	MsgMyAdsErr = "❌ Could not load your ads. Please try again."
)

// =============================================================================
// Quick flow
// =============================================================================

const (
	MsgSendAdText = "📝 Send the ad text (paste or forward). You can add photos afterwards."
	MsgHeadsUp    = `
		ℹ️ <b>Heads up:</b> sending text here won’t create a post.

		To post an ad:
		1) Tap <b>Post Ad ➕</b> below,
		2) Choose <b>Paste/Forward Ad ⚡</b>,
		3) Send your ad text and (optionally) add photos.`
	MsgSendSomeText     = "Please send some text."
	MsgTextSaved        = "🖊️ <b>Text saved.</b>\nWould you like to add photos?"
	MsgDuplicatePost    = "⚠️ This post already exists in the system."
	MsgCouldNotSaveAd   = "❌ Could not save the ad. Please try again."
	MsgCouldNotSavePost = "❌ Could not save the post."
	MsgSelectPhotos     = "📷 Please select photos (multiple allowed)."
	MsgPostReady        = "✅ Saved! Your post is ready."
	MsgStartFromPost    = "ℹ️ Please start from “Post Ad ➕ → Paste/Forward Ad ⚡”."
	MsgSavedPhotoPost   = "✅ Saved (photo post)."
	MsgSavedDocPost     = "✅ Saved (document post)."
	MsgSavedAlbum       = "✅ Saved (%d media)"
	MsgSavedAlbumFailed = "✅ Saved (%d media, %d failed)"
	MsgImagesSaved      = "✅ Saved! (%d added)"
	MsgImagesSavedMixed = "✅ Saved! (%d added, %d failed)"
	MsgContinuedNoPics  = "↩️ Continued without photos."
	MsgAttachedCounter  = "📎 Attached: %d\nTap a button when you’re finished."
	MsgSelectMore       = "📷 Select more photos…\n📎 Currently attached: %d"
)

// =============================================================================
// Guided wizard
// =============================================================================

const (
	MsgGuidedIntro    = "🍀 <b>Create an Ad (Guided)</b>\nPick the <b>type</b> and <b>audience</b>."
	MsgGuidedTypeAud  = "🍀 <b>Create an Ad (Guided)</b>\nType: <b>%s</b>\nAudience: <b>%s</b>"
	MsgGuidedLocation = "📍 <b>Location</b>\nSend area/locality and city (e.g. <i>Powai, Mumbai</i>)."
	MsgGuidedRent     = "💰 <b>Budget (Rent)</b>\nSelected: <b>%s</b>"
	MsgGuidedDeposit  = "💰 <b>Budget (Deposit)</b>\nSelected: <b>%s</b>"
	MsgGuidedFurnish  = "🛋️ <b>Furnishing</b>\nSelected: <b>%s</b>"
	MsgGuidedRules    = "⚙️ <b>Rules</b>\nToggle what applies, then Next."
	MsgGuidedDetails  = "📝 <b>Description & Contact</b>\nSend description. You can add a phone/email too."
	MsgGuidedSummary  = "📄 <b>Summary</b>\n<code>%s</code>"
	MsgGuidedCancel   = "❌ Cancelled."
	MsgGuidedSaved    = "✅ Saved! Listing ID: <code>%s</code>"
	MsgGuidedSaveErr  = "❌ Failed to save your listing."
)

// =============================================================================
// Button labels
// =============================================================================

const (
	BtnQuick          = "Paste/Forward Ad ⚡"
	BtnGuided         = "Guided: Answer Questions 🧠"
	BtnAddPhotos      = "Add photos 📸"
	BtnSkipPhotos     = "Continue without photos ✅"
	BtnImagesDone     = "I’m done ✅"
	BtnImagesDiscard  = "Continue without photos ↩️"
	BtnImagesMore     = "Select more ➕"
	BtnNext           = "Next ➡️"
	BtnBack           = "⬅️ Back"
	BtnDone           = "Done ✅"
	BtnCancel         = "Cancel ✖️"
	BtnSave           = "Save ✅"
	BtnEdit           = "Edit ✏️"
	BtnDepositNone    = "None"
	BtnDepositSame    = "Same as rent"
	BtnSelectedPrefix = "✅ "
)
