package candidates

import (
	"mime"
	"strings"
)

// documentTypes are the non-image media types accepted as supporting documents
var documentTypes = map[string]bool{
	"application/pdf":          true,
	"application/msword":       true,
	"application/rtf":          true,
	"application/xml":          true,
	"text/xml":                 true,
	"application/vnd.ms-excel": true,
}

// documentPrefixes cover the office document families
var documentPrefixes = []string{
	"application/vnd.openxmlformats-officedocument.",
	"application/vnd.oasis.opendocument.",
}

// AcceptedContentType reports whether a content type belongs to the document or image family
func AcceptedContentType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	if mediaType == "" {
		return false
	}
	if strings.HasPrefix(mediaType, "image/") {
		return true
	}
	if documentTypes[mediaType] {
		return true
	}
	for _, prefix := range documentPrefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

// receiptKeywords are lowercase fragments that hint a file or message is a receipt or invoice
var receiptKeywords = []string{
	"receipt", "invoice", "bill", "order confirmation", "payment confirmation",
	"quittung", "rechnung", "beleg", "facture", "factura", "ricevuta", "kvitto",
}

// LooksLikeReceipt reports whether any of the given texts contains a receipt keyword
func LooksLikeReceipt(texts ...string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		if lower == "" {
			continue
		}
		for _, keyword := range receiptKeywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}
