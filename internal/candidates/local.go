package candidates

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lox/receipt-matcher/internal/types"
)

var (
	// ErrInvalidWindow is returned when a date window ends before it starts
	ErrInvalidWindow = errors.New("date window ends before it starts")
	// ErrMissingID is returned when a local item has no id
	ErrMissingID = errors.New("local item has no id")
)

// Field names reported in Candidate.MatchedFields
const (
	FieldFilename     = "filename"
	FieldCounterparty = "counterparty"
	FieldTaxID        = "tax_id"
	FieldBankID       = "bank_id"
	FieldWebsite      = "website"
	FieldEmailSubject = "email_subject"
	FieldEmailSender  = "email_sender"
	FieldText         = "text"
)

// minBodyMatchLength is the shortest free text that is matched against extracted document text
const minBodyMatchLength = 4

// FilterLocal selects the local items that can still serve as supporting documents and
// normalizes them into candidates, preserving the input order.
//
// An item is kept when it is not linked to a transaction, not flagged as "not a receipt",
// has an accepted content type and, if window is set, carries no date or a date inside it.
// A non-empty freeText further restricts the result to items matching it.
func FilterLocal(items []types.LocalItem, window *types.DateWindow, freeText string) ([]types.Candidate, error) {
	if window != nil && types.DayOf(window.To).Before(types.DayOf(window.From)) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidWindow,
			window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))
	}

	freeText = strings.TrimSpace(freeText)
	candidates := make([]types.Candidate, 0, len(items))
	for idx, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("%w: index %d (%s)", ErrMissingID, idx, item.Filename)
		}
		if item.Linked() || item.NotReceipt || !AcceptedContentType(item.ContentType) {
			continue
		}
		// Undated items are kept: they may simply not be processed yet
		if window != nil && item.Date != nil && !window.Contains(*item.Date) {
			continue
		}

		var matched []string
		if freeText != "" {
			matched = MatchLocal(item, freeText)
			if len(matched) == 0 {
				continue
			}
		}

		candidate := FromLocal(item)
		candidate.MatchedFields = matched
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// FromLocal normalizes a local item into a candidate
func FromLocal(item types.LocalItem) types.Candidate {
	return types.Candidate{
		ID:            types.LocalCandidateID(item.ID),
		Source:        types.SourceLocal,
		Filename:      item.Filename,
		Date:          item.Date,
		Amount:        item.Amount,
		Currency:      item.Currency,
		Counterparty:  item.Counterparty,
		SenderEmail:   item.EmailSender,
		ContentType:   item.ContentType,
		Size:          item.Size,
		LikelyReceipt: item.Amount != nil || LooksLikeReceipt(item.Filename, item.EmailSubject),
		FileID:        item.ID,
	}
}

// MatchLocal returns the attributes of item that contain text, ordered by specificity.
// Extracted document text is only consulted as a fallback when no structured attribute
// matched, and only for text of at least four characters.
func MatchLocal(item types.LocalItem, text string) []string {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}

	structured := []struct {
		name  string
		value string
		ident bool
	}{
		{FieldFilename, item.Filename, false},
		{FieldCounterparty, item.Counterparty, false},
		{FieldTaxID, item.TaxID, true},
		{FieldBankID, item.BankID, true},
		{FieldWebsite, item.Website, false},
		{FieldEmailSubject, item.EmailSubject, false},
		{FieldEmailSender, item.EmailSender, false},
	}

	var matched []string
	for _, field := range structured {
		if field.value == "" {
			continue
		}
		if containsFold(field.value, needle) || (field.ident && containsIdentifier(field.value, needle)) {
			matched = append(matched, field.name)
		}
	}
	if len(matched) > 0 {
		return matched
	}

	if utf8.RuneCountInString(needle) >= minBodyMatchLength && item.Text != "" && containsFold(item.Text, needle) {
		return []string{FieldText}
	}
	return nil
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// containsIdentifier compares tax and bank identifiers ignoring spaces, dashes and dots
func containsIdentifier(value, lowerNeedle string) bool {
	a, b := compactIdentifier(value), compactIdentifier(lowerNeedle)
	return b != "" && strings.Contains(a, b)
}

func compactIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '/':
			return -1
		}
		return r
	}, strings.ToLower(s))
}
