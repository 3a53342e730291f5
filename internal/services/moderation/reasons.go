package moderation

import (
	"sort"
	"strings"
)

type ReasonItem struct {
	ReasonCode string
	Label      string
	ReasonText string
}

type reasonTemplate struct {
	Label      string
	ReasonText string
}

var reasonTemplates = map[string]reasonTemplate{
	"FRAUD_SUSPECT": {
		Label:      "Suspected fraud",
		ReasonText: "The listing shows signs of fraud.",
	},
	"FAKE_PHOTOS": {
		Label:      "Photos do not match",
		ReasonText: "The photos do not show the vehicle being offered.",
	},
	"PRICE_MISLEADING": {
		Label:      "Misleading price",
		ReasonText: "The price is misleading or does not match the description.",
	},
	"DUPLICATE_LISTING": {
		Label:      "Duplicate listing",
		ReasonText: "The same vehicle is already listed.",
	},
	"PROHIBITED_VEHICLE": {
		Label:      "Prohibited vehicle",
		ReasonText: "This vehicle cannot be offered on the marketplace.",
	},
	"ABUSIVE_BEHAVIOUR": {
		Label:      "Abusive behaviour",
		ReasonText: "The account was reported for abusive behaviour.",
	},
	"SOLD_ELSEWHERE": {
		Label:      "Sold elsewhere",
		ReasonText: "The vehicle is no longer on offer.",
	},
	"OTHER": {
		Label:      "Other",
		ReasonText: "A moderator reviewed this listing.",
	},
}

func (s *Service) ListReasons() []ReasonItem {
	codes := make([]string, 0, len(reasonTemplates))
	for code := range reasonTemplates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	items := make([]ReasonItem, 0, len(codes))
	for _, code := range codes {
		template := reasonTemplates[code]
		items = append(items, ReasonItem{
			ReasonCode: code,
			Label:      template.Label,
			ReasonText: template.ReasonText,
		})
	}
	return items
}

// resolveReason prefers free text and falls back to the template of code.
// ok is false for an unknown code.
func resolveReason(code, text string) (string, bool) {
	text = strings.TrimSpace(text)
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return text, true
	}
	template, ok := reasonTemplates[code]
	if !ok {
		return "", false
	}
	if text != "" {
		return text, true
	}
	return template.ReasonText, true
}
