// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"regexp"
	"strings"
	"unicode"
)

// =============================================================================
// ANSWER FORMATTING
// =============================================================================

var (
	numberedLine = regexp.MustCompile(`^\d+\.`)
	leadNumber   = regexp.MustCompile(`^(\d+)\.`)
	intervention = regexp.MustCompile(`(?i)intervention n[°\s]*([\d-]+)`)
	quote        = regexp.MustCompile(`(?i)devis n[°\s]*([\d-]+)`)
	invoice      = regexp.MustCompile(`(?i)facture n[°\s]*([\d-]+)`)
	amount       = regexp.MustCompile(`([\d\s,.]+)\s?€+`)
	date         = regexp.MustCompile(`\b\d{1,2}[/.]\d{1,2}[/.]\d{2,4}\b`)
	duration     = regexp.MustCompile(`(?i)durée[:\s]*([\dhm]+)`)
	maintenance  = regexp.MustCompile(`(?i)maintenance`)
	noReplace    = regexp.MustCompile(`(?i)sans remplacement`)
)

// FormatAnswer turns a raw agent answer into Markdown. Every non-empty line
// becomes its own line, bulleted unless it is already numbered; reference
// numbers, euro amounts and dates are emphasised.
func FormatAnswer(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\t", " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if l := formatLine(strings.TrimSpace(line)); l != "" {
			out = append(out, l)
		}
	}
	// Two trailing spaces keep the lines apart in one Markdown paragraph.
	return strings.Join(out, "  \n")
}

func formatLine(l string) string {
	if l == "" {
		return ""
	}
	if !numberedLine.MatchString(l) && !strings.HasPrefix(l, "📝") && !strings.HasPrefix(l, "📅") {
		l = "• " + l
	}

	l = leadNumber.ReplaceAllString(l, "**${1}**.")
	l = intervention.ReplaceAllString(l, "📝 **Intervention ${1}**")
	l = quote.ReplaceAllString(l, "📄 **Devis ${1}**")
	l = invoice.ReplaceAllString(l, "💰 **Facture ${1}**")
	l = amount.ReplaceAllStringFunc(l, boldAmount)
	l = date.ReplaceAllString(l, "📅 **${0}**")

	l = replaceFirst(duration, l, "⏱️ ${1}")
	l = replaceFirst(maintenance, l, "🛠️ Maintenance")
	l = replaceFirst(noReplace, l, "⚠️ Sans remplacement")
	return l
}

// boldAmount emphasises "1 200,50 €" as "**1 200,50€**", leaving leading
// whitespace outside the emphasis.
func boldAmount(m string) string {
	sub := amount.FindStringSubmatch(m)
	if sub == nil {
		return m
	}
	digits := sub[1]
	trimmed := strings.TrimLeftFunc(digits, unicode.IsSpace)
	lead := digits[:len(digits)-len(trimmed)]
	trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
	if strings.Trim(trimmed, ",. ") == "" {
		return m
	}
	return lead + "**" + trimmed + "€**"
}

func replaceFirst(re *regexp.Regexp, s, template string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	var dst []byte
	dst = re.ExpandString(dst, template, s, loc)
	return s[:loc[0]] + string(dst) + s[loc[1]:]
}
