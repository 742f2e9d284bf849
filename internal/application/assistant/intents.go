package assistant

import (
	"regexp"
	"strings"
)

// Intent names
const (
	IntentGreeting         = "greeting"
	IntentMyRequests       = "my_requests"
	IntentMyAssignments    = "my_assignments"
	IntentHowToRequest     = "how_to_request"
	IntentHowToReturn      = "how_to_return"
	IntentHowToExtend      = "how_to_extend"
	IntentPendingApprovals = "pending_approvals"
	IntentStockLookup      = "stock_lookup"
	IntentHelp             = "help"
	IntentUnknown          = "unknown"
)

type intent struct {
	name     string
	patterns []*regexp.Regexp
}

// intents are tried in order; the first match wins. More specific phrasings
// come before the generic ones they would otherwise collide with.
var intents = []intent{
	{IntentHowToReturn, compile(`\bhow (do|can|to)\b.*\breturn`, `\breturn (a|an|my|the)?\s*(item|product|asset|laptop|equipment)`)},
	{IntentHowToExtend, compile(`\bextend`, `\bextension\b`, `\bmore time\b`, `\bkeep (it|this) longer\b`)},
	{IntentHowToRequest, compile(`\bhow (do|can|to)\b.*\b(request|borrow|get)\b`, `\bnew request\b`)},
	{IntentPendingApprovals, compile(`\bpending approvals?\b`, `\b(what|anything) (to|needs?) (approve|review)\b`, `\bapproval queue\b`)},
	{IntentMyRequests, compile(`\bmy requests?\b`, `\bstatus of my\b.*\brequest`, `\brequests? status\b`)},
	{IntentMyAssignments, compile(`\bmy (assignments?|items|assets|equipment|products)\b`, `\bwhat (do i|am i) (have|holding)\b`, `\boverdue\b`)},
	{IntentStockLookup, compile(`\b(in stock|available|availability)\b`, `\bhow many\b`)},
	{IntentGreeting, compile(`^\s*(hi|hello|hey|good (morning|afternoon|evening))\b`)},
	{IntentHelp, compile(`^\s*help\s*$`, `\bwhat can you do\b`)},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Match returns the first intent whose patterns match the message
func Match(message string) string {
	message = strings.TrimSpace(message)
	for _, in := range intents {
		for _, re := range in.patterns {
			if re.MatchString(message) {
				return in.name
			}
		}
	}
	return IntentUnknown
}

var stockSubject = regexp.MustCompile(`(?i)(?:is|are|any|how many)\s+(?:there\s+)?(?:an?\s+|the\s+|any\s+)?(.+?)\s+(?:(?:are|is)\s+)?(?:in stock|available|left|do we have)\b`)

// stockQuery extracts the product phrase from a stock question
func stockQuery(message string) string {
	if m := stockSubject.FindStringSubmatch(message); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
