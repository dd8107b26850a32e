package candidates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptedContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/pdf", true},
		{"Application/PDF; name=a.pdf", true},
		{"image/jpeg", true},
		{"image/heic", true},
		{"application/msword", true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"application/vnd.oasis.opendocument.text", true},
		{"application/xml", true},
		{"text/plain", false},
		{"text/html", false},
		{"application/zip", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.contentType, func(t *testing.T) {
			assert.Equal(t, tc.want, AcceptedContentType(tc.contentType))
		})
	}
}

func TestLooksLikeReceipt(t *testing.T) {
	assert.True(t, LooksLikeReceipt("Invoice_2024-03.pdf"))
	assert.True(t, LooksLikeReceipt("scan.pdf", "Ihre Rechnung"))
	assert.False(t, LooksLikeReceipt("holiday.jpg", ""))
	assert.False(t, LooksLikeReceipt())
}
