// Package parser extracts transaction records from free-form bank alert
// text (SMS or email) using keyword and pattern heuristics. It is
// best-effort by design: text that does not look like real money movement
// yields no record, never an error.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerfeed/internal/core"
)

// DateFallback selects what goes into the record when no date token can be
// extracted from a message.
type DateFallback string

const (
	// DateFallbackUnknown stores the literal "unknown" sentinel.
	DateFallbackUnknown DateFallback = "unknown"

	// DateFallbackToday stores the current UTC date. Useful in live-stream
	// deployments where "now" is a better approximation than no date at all.
	DateFallbackToday DateFallback = "today"
)

// IsValid returns true if the fallback policy is a known value.
func (f DateFallback) IsValid() bool {
	return f == DateFallbackUnknown || f == DateFallbackToday
}

// Config holds parser configuration.
type Config struct {
	// DateFallback is applied when no date-shaped substring exists or none
	// of the known layouts parse. Defaults to DateFallbackUnknown.
	DateFallback DateFallback

	// Now supplies the clock for DateFallbackToday. Defaults to time.Now.
	Now func() time.Time
}

// Parser is a deterministic, side-effect-free transaction extractor.
// A single instance is safe for concurrent use.
type Parser struct {
	fallback DateFallback
	now      func() time.Time
}

// New creates a parser. An unknown fallback policy is a configuration
// error and is rejected immediately.
func New(cfg Config) (*Parser, error) {
	if cfg.DateFallback == "" {
		cfg.DateFallback = DateFallbackUnknown
	}
	if !cfg.DateFallback.IsValid() {
		return nil, fmt.Errorf("invalid date fallback policy %q", cfg.DateFallback)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Parser{fallback: cfg.DateFallback, now: cfg.Now}, nil
}

// Keyword tables. Matching is a lowercase substring scan over the whole
// message, so inflected forms ("debited", "reversals") hit their stems.
var (
	negativeOutcomes = []string{"failed", "declined", "reversed", "reversal", "unsuccessful", "cancelled"}
	debitKeywords    = []string{"debit", "debited", "withdrawn", "purchase", "spent", "payment", "paid", "sent"}
	creditKeywords   = []string{"credit", "credited", "deposit", "deposited", "received", "added", "refunded"}
)

// currencySymbols maps recognized glyphs to their ISO 4217 codes.
var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"₹": "INR",
	"¥": "JPY",
}

// amountPattern matches an optional minus, an optional currency signal (a
// standalone 3-letter code or a glyph, immediately before or after the
// digits), and a comma-grouped digit run with optional fraction. The word
// boundaries around the digit run reject ungrouped runs of four or more
// digits, which keeps account numbers and date fragments out.
var amountPattern = regexp.MustCompile(`(-)?\s?(?:\b([A-Za-z]{3})\b\s?|([$€£₹¥])\s?)?\b(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\b(?:\s?\b([A-Za-z]{3})\b|\s?([$€£₹¥]))?`)

// datePatterns is an ordered list of matcher+layout pairs. The first
// pattern whose shape appears anywhere in the text wins, in list order,
// not in document order; its layouts are then tried in order until one
// parses. Day-first layouts take priority over month-first.
type datePattern struct {
	re      *regexp.Regexp
	layouts []string
}

var datePatterns = []datePattern{
	{
		re:      regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		layouts: []string{"2-1-2006", "2/1/2006", "1-2-2006", "1/2/2006", "2-1-06", "2/1/06"},
	},
	{
		re:      regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
		layouts: []string{"2006-01-02", "2006/01/02"},
	},
	{
		re:      regexp.MustCompile(`\b\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}\b`),
		layouts: []string{"2 January 2006", "2 Jan 2006"},
	},
}

// descriptionPattern anchors on the first at/from/to and captures the
// counterparty run that follows it.
var descriptionPattern = regexp.MustCompile(`(?i)\b(?:at|from|to)\b[ \t]+([A-Za-z0-9 &._-]+)`)

// Parse extracts a transaction record from raw alert text. It returns nil
// when the text does not resolve to real money movement: no amount token,
// or a negative-outcome keyword is present. Parsing the same text twice
// yields identical records (modulo the today fallback clock).
func (p *Parser) Parse(text string) *core.TransactionRecord {
	lower := strings.ToLower(text)
	for _, word := range negativeOutcomes {
		if strings.Contains(lower, word) {
			return nil
		}
	}

	amount, currency, ok := extractAmount(text)
	if !ok || amount.IsZero() {
		return nil
	}
	amount = applySign(amount, lower)

	date, matched := p.extractDate(text)

	// The date token is excised before looking for the counterparty so a
	// trailing "... from PAYPAL 2023/05/12" does not leak digits into the
	// description.
	withoutDate := text
	if matched != "" {
		withoutDate = strings.Replace(text, matched, "", 1)
	}

	return &core.TransactionRecord{
		Date:        date,
		Description: extractDescription(withoutDate),
		Amount:      amount,
		Currency:    currency,
	}
}

// ParseSMS extracts a transaction from an SMS alert.
func (p *Parser) ParseSMS(text string) *core.TransactionRecord { return p.Parse(text) }

// ParseEmail extracts a transaction from an email alert.
func (p *Parser) ParseEmail(text string) *core.TransactionRecord { return p.Parse(text) }

func extractAmount(text string) (decimal.Decimal, string, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, "", false
	}
	neg, codeBefore, symBefore, digits, codeAfter, symAfter := m[1], m[2], m[3], m[4], m[5], m[6]

	value, err := decimal.NewFromString(strings.ReplaceAll(digits, ",", ""))
	if err != nil {
		return decimal.Zero, "", false
	}
	if neg != "" {
		value = value.Neg()
	}

	currency := core.DefaultCurrency
	switch {
	case codeBefore != "":
		currency = strings.ToUpper(codeBefore)
	case symBefore != "":
		currency = currencySymbols[symBefore]
	case codeAfter != "":
		currency = strings.ToUpper(codeAfter)
	case symAfter != "":
		currency = currencySymbols[symAfter]
	}
	return value, currency, true
}

// applySign overrides the numeral's own sign from keyword evidence. Debit
// words win over credit words when both appear.
func applySign(amount decimal.Decimal, lower string) decimal.Decimal {
	for _, word := range debitKeywords {
		if strings.Contains(lower, word) {
			return amount.Abs().Neg()
		}
	}
	for _, word := range creditKeywords {
		if strings.Contains(lower, word) {
			return amount.Abs()
		}
	}
	return amount
}

// extractDate returns the normalized date and the raw substring it was
// derived from. The raw substring is empty when nothing date-shaped exists.
func (p *Parser) extractDate(text string) (normalized, matched string) {
	for _, dp := range datePatterns {
		m := dp.re.FindString(text)
		if m == "" {
			continue
		}
		candidate := strings.Join(strings.Fields(m), " ")
		for _, layout := range dp.layouts {
			if ts, err := time.Parse(layout, candidate); err == nil {
				return ts.Format(core.DateLayout), m
			}
		}
		// Date-shaped but unparseable with every known layout.
		return p.fallbackDate(), m
	}
	return p.fallbackDate(), ""
}

func (p *Parser) fallbackDate() string {
	if p.fallback == DateFallbackToday {
		return core.FormatDate(p.now())
	}
	return core.DateUnknown
}

func extractDescription(text string) string {
	m := descriptionPattern.FindStringSubmatch(text)
	if m == nil {
		return core.DefaultDescription
	}
	desc := m[1]

	// Truncate at the first of " on ", comma, period, or exclamation mark.
	cut := len(desc)
	if i := strings.Index(strings.ToLower(desc), " on "); i >= 0 && i < cut {
		cut = i
	}
	for _, sep := range []string{",", ".", "!"} {
		if i := strings.Index(desc, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	desc = strings.TrimSpace(desc[:cut])
	if desc == "" {
		return core.DefaultDescription
	}
	return desc
}
