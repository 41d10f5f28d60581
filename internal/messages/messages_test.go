package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"", "th"},
		{"th", "th"},
		{"th-TH", "th"},
		{"en", "en"},
		{"en-US", "en"},
		{"fr", "th"},
		{"not a tag!", "th"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.lang).Language())
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("th"))
	assert.True(t, Supported("en"))
	assert.False(t, Supported("fr"))
	assert.False(t, Supported("???"))
}

func TestSprintf(t *testing.T) {
	th := For("th")
	en := For("en")

	assert.Equal(t, "✅ เพิ่มกิจกรรม: Meeting [ดูใน Calendar](https://x)", th.Sprintf(Created, "Meeting", "https://x"))
	assert.Equal(t, "✅ Event added: Meeting [View in Calendar](https://x)", en.Sprintf(Created, "Meeting", "https://x"))

	assert.Equal(t, "ไม่พบนัด: Gym ในวันที่ 2024-06-01", th.Sprintf(NotFound, "Gym", "2024-06-01"))
	assert.Equal(t, "🗑 ลบนัด: Gym ในวันที่ 2024-06-01 แล้ว (2 รายการ)", th.Sprintf(Deleted, "Gym", "2024-06-01", 2))
	assert.Equal(t, "- Gym เวลา: 07:00", th.Sprintf(ViewLine, "Gym", "07:00"))
	assert.Equal(t, "❌ API error: 502 - bad gateway", en.Sprintf(ModelHTTPError, 502, "bad gateway"))
}

func TestEveryKeyTranslated(t *testing.T) {
	assert.Len(t, thai, len(english))
	for _, key := range english {
		_, ok := thai[key]
		assert.True(t, ok, "missing Thai translation for %q", key)
	}
}

func TestFields(t *testing.T) {
	assert.Equal(t, "วันที่, เวลา", For("th").Fields([]string{FieldDate, FieldTime}))
	assert.Equal(t, "date, title", For("en").Fields([]string{FieldDate, FieldTitle}))
}

func TestUsage(t *testing.T) {
	th := For("th").Usage()
	assert.Contains(t, th, "การเพิ่มเหตุการณ์ (Add Event)")
	assert.Contains(t, th, "การดูเหตุการณ์ (View Events)")

	en := For("en").Usage()
	assert.Contains(t, en, "Adding an event")
	assert.Contains(t, en, "Viewing events")
}
