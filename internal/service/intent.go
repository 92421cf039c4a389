package service

import "aviaskill/internal/model"

// Keyword sets recognized by the classifier. Tokens arrive already
// lower-cased.
var (
	cheapForms    = tokenSet("дешевый", "дешевого")
	transferForms = tokenSet("пересадок", "пересадки", "пересадками", "пересадкой")
	popularForms  = tokenSet("популярные", "популярных")
	zeroForms     = tokenSet("без", "ноль")
	oneForms      = tokenSet("одной", "одна", "1")
)

const monthKeyword = "месяц"

// intentRule maps a predicate over the token bag to an intent. Rules
// are evaluated top to bottom; the first match wins.
type intentRule struct {
	matches func(tokens map[string]bool) bool
	intent  model.Intent
}

// twoCityRules apply when exactly two cities were recognized. Order
// matters: the month rule shadows the transfer rule, so an utterance
// carrying both "месяц" and a transfer word is classified as a
// month query.
var twoCityRules = []intentRule{
	{
		matches: func(tokens map[string]bool) bool {
			return anyOf(tokens, cheapForms) && tokens[monthKeyword]
		},
		intent: model.IntentMonthCheapest,
	},
	{
		matches: func(tokens map[string]bool) bool {
			return tokens["дешевый"] && anyOf(tokens, transferForms)
		},
		intent: model.IntentByTransfers,
	},
	{
		matches: func(tokens map[string]bool) bool { return true },
		intent:  model.IntentTodayCheapest,
	},
}

// Classify selects the intent for a bag of lower-cased tokens given
// the number of cities recognized among them. Greeting handling (new
// session, empty command) happens before classification and never
// reaches here.
func Classify(tokens []string, cityCount int) model.Classification {
	bag := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		bag[t] = true
	}

	if cityCount == 1 && anyOf(bag, popularForms) {
		return model.Classification{Intent: model.IntentPopular}
	}
	if cityCount != 2 {
		return model.Classification{Intent: model.IntentUnknown}
	}

	for _, rule := range twoCityRules {
		if rule.matches(bag) {
			cls := model.Classification{Intent: rule.intent}
			if cls.Intent == model.IntentByTransfers {
				cls.Transfers = transferCount(bag)
			}
			return cls
		}
	}
	// Unreachable: the last rule always matches.
	return model.Classification{Intent: model.IntentUnknown}
}

// transferCount disambiguates the requested tier; with no qualifying
// keyword the query is read as "two transfers".
func transferCount(tokens map[string]bool) int {
	switch {
	case anyOf(tokens, zeroForms):
		return 0
	case anyOf(tokens, oneForms):
		return 1
	default:
		return 2
	}
}

func anyOf(tokens map[string]bool, forms map[string]bool) bool {
	for form := range forms {
		if tokens[form] {
			return true
		}
	}
	return false
}

func tokenSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
