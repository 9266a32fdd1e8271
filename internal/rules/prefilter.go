package rules

import "strings"

// Prefilter reason strings.
const (
	PrefilterKeep                = "keep"
	PrefilterURLBadButPositive   = "url_bad_but_positive_signal"
	PrefilterDropURLPattern      = "drop:url_pattern"
	PrefilterNameBadButPositive  = "name_bad_but_positive_signal"
	PrefilterDropNamePattern     = "drop:name_pattern"
	PrefilterDropRecognitionOnly = "drop:recognition_no_money_no_apply"
)

// urlBadPatterns flag URLs that are clearly past-awardee, newsletter, press,
// or governance pages.
var urlBadPatterns = compileAll([][2]string{
	{"newsletter", `newsletter`},
	{"news_path", `/news`},
	{"blog_path", `/blog`},
	{"press_path", `/press`},
	{"media_path", `/media`},
	{"annual_report", `annual[-_]?report`},
	{"awardees_path", `/awardees`},
	{"past_recipients", `past[-_ ]recipients`},
	{"previous_winners", `previous[-_ ]winners`},
	{"winners", `winners`},
	{"recipients", `recipient[s]?`},
	{"honor_roll", `honor[-_ ]roll`},
	{"hall_of_fame", `hall[-_ ]of[-_ ]fame`},
	{"events_path", `/events?`},
	{"gala_path", `/gala`},
	{"conference_path", `/conference`},
	{"staff_path", `/staff`},
	{"board_path", `/board`},
	{"leadership_path", `/leadership`},
	{"about_path", `/about`},
	{"contact_path", `/contact`},
	{"membership_path", `/membership`},
	{"join_path", `/join`},
})

// nameBadPatterns flag opportunity names that scream past winners or
// recognition-only pages.
var nameBadPatterns = compileAll([][2]string{
	{"past_recipients", `past recipients`},
	{"awardees", `awardees`},
	{"winners", `winners`},
	{"recipients", `recipient(s)?`},
	{"honor_roll", `honor roll`},
	{"hall_of_fame", `hall of fame`},
	{"recognition", `recognition`},
	{"distinguished", `distinguished`},
	{"lifetime_achievement", `lifetime achievement`},
	{"newsletter", `newsletter`},
	{"news", `news`},
	{"blog", `blog`},
	{"press_release", `press release`},
	{"announcement", `announcement`},
	{"annual_meeting", `annual meeting`},
	{"gala", `gala`},
	{"event", `event`},
	{"policy", `policy`},
	{"conflict_of_interest", `conflict of interest`},
	{"bylaws", `bylaws`},
	{"minutes", `minutes`},
})

// positiveSignals indicate an application-based funding opportunity.
var positiveSignals = []string{
	"apply", "application", "rfa", "rfp", "request for proposals", "call for proposals",
	"deadline", "due", "letter of intent", "loi", "budget", "award amount", "funding",
	"grant", "grants", "stipend", "fellowship", "scholarship", "seed funding",
}

// recognitionSignals indicate recognition-only content, often with no money
// and no application.
var recognitionSignals = []string{
	"recognizes", "honors", "celebrates", "recognition", "distinguished", "award for excellence",
	"lifetime achievement", "named lecture", "medal", "honorary",
}

// amountHintWords in the award-amount field count as a money hint even
// without a currency symbol.
var amountHintWords = []string{"up to", "usd", "dollar", "£", "€"}

// PrefilterInput carries the normalized fields inspected by the prefilter.
// All fields must be pre-normalized with model.NormalizeBlob.
type PrefilterInput struct {
	Name     string
	URLs     string // source URL and opportunity URL, space-joined
	Blob     string // name+summary+eligibility+deadline+amount+evidence
	Deadline string
	Amount   string
}

// hasPositiveSignal reports application-based funding evidence in the blob:
// apply/deadline keywords, a currency symbol, or grant/funding literals.
func hasPositiveSignal(blob string) bool {
	return ContainsAny(blob, positiveSignals) ||
		strings.Contains(blob, "$") ||
		strings.Contains(blob, "grant") ||
		strings.Contains(blob, "funding")
}

// Prefilter decides whether an opportunity row survives into the LLM
// classification pass. Returns (keep, reason).
func Prefilter(in PrefilterInput) (bool, string) {
	// 1) URL is clearly a past-awardee / newsletter / governance page.
	if AnyMatch(urlBadPatterns, in.URLs) {
		if hasPositiveSignal(in.Blob) {
			return true, PrefilterURLBadButPositive
		}
		return false, PrefilterDropURLPattern
	}

	// 2) The opportunity name matches a recognition/governance pattern.
	if AnyMatch(nameBadPatterns, in.Name) {
		if hasPositiveSignal(in.Blob) {
			return true, PrefilterNameBadButPositive
		}
		return false, PrefilterDropNamePattern
	}

	// 3) Recognition language with no money, no deadline, no apply language.
	recognitionish := ContainsAny(in.Blob, recognitionSignals)
	hasMoneyHint := strings.Contains(in.Blob, "$") ||
		ContainsAny(in.Amount, amountHintWords) ||
		strings.TrimSpace(in.Amount) != ""
	hasDeadlineHint := strings.TrimSpace(in.Deadline) != ""
	hasApplyHint := ContainsAny(in.Blob, positiveSignals)

	if recognitionish && !hasMoneyHint && !hasDeadlineHint && !hasApplyHint {
		return false, PrefilterDropRecognitionOnly
	}

	return true, PrefilterKeep
}
