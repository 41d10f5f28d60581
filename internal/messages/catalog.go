package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys. Each key is also the English text.
const (
	Created         = "✅ Event added: %s [View in Calendar](%s)"
	CreateFailed    = "❌ Could not add the event: %s"
	Deleted         = "🗑 Deleted %s on %s (%d event(s))"
	DeletePartial   = "⚠️ Deleted %d of %d event(s) %s on %s, then failed: %s"
	Updated         = "✏️ Moved %s on %s to %s (%d event(s))"
	UpdatePartial   = "⚠️ Moved %d of %d event(s) %s on %s to %s, then failed: %s"
	NotFound        = "No event %s on %s"
	NoEvents        = "No events on %s"
	ViewHeader      = "📅 All events on %s:"
	ViewLine        = "- %s at: %s"
	LookupFailed    = "❌ Google Calendar API error: %s"
	ModelHTTPError  = "❌ API error: %d - %s"
	ModelRequest    = "❌ Request failed: %s"
	ModelNoResponse = "❌ No response from the API"
	MissingInfo     = "⚠️ Missing information: %s"
	MalformedInfo   = "⚠️ Wrong format: %s"
	EmptyInput      = "Please type a command."
	NotAuthorized   = "Please log in with Google first."
	AssistantLine   = "Chrono: %s"
	ChatIntro       = "Type a command. /help shows examples, /lang th|en switches language, /quit exits."

	FieldDate  = "date"
	FieldTime  = "time"
	FieldTitle = "title"

	HelpIntro       = "How to use"
	HelpAddTitle    = "Adding an event"
	HelpAddBody     = "To add a new event, give:\n- the event title\n- the date\n- the time\n\nExample: add a meeting tomorrow at ten"
	HelpDeleteTitle = "Deleting an event"
	HelpDeleteBody  = "To delete an event, give:\n- the event title\n- the date\n\nExample: cancel tomorrow's meeting"
	HelpUpdateTitle = "Moving an event"
	HelpUpdateBody  = "To move an event to another time on the same day, give:\n- the event title\n- the date\n- the new time\n\nExample: move tomorrow's meeting to eleven"
	HelpViewTitle   = "Viewing events"
	HelpViewBody    = "To list the events of a day, give:\n- the date to look at\n\nExample: what do I have tomorrow?"
)

var thai = map[string]string{
	Created:         "✅ เพิ่มกิจกรรม: %s [ดูใน Calendar](%s)",
	CreateFailed:    "❌ เพิ่มกิจกรรมไม่สำเร็จ: %s",
	Deleted:         "🗑 ลบนัด: %s ในวันที่ %s แล้ว (%d รายการ)",
	DeletePartial:   "⚠️ ลบนัดได้ %d จาก %d รายการ: %s ในวันที่ %s แล้วเกิดข้อผิดพลาด: %s",
	Updated:         "✏️ เปลี่ยนเวลานัด: %s ในวันที่ %s เป็น %s (%d รายการ)",
	UpdatePartial:   "⚠️ เปลี่ยนเวลานัดได้ %d จาก %d รายการ: %s ในวันที่ %s เป็น %s แล้วเกิดข้อผิดพลาด: %s",
	NotFound:        "ไม่พบนัด: %s ในวันที่ %s",
	NoEvents:        "ไม่มีนัดในวันที่ %s",
	ViewHeader:      "📅 นัดทั้งหมดในวันที่ %s:",
	ViewLine:        "- %s เวลา: %s",
	LookupFailed:    "❌ Google Calendar API error: %s",
	ModelHTTPError:  "❌ API error: %d - %s",
	ModelRequest:    "❌ Request failed: %s",
	ModelNoResponse: "❌ ไม่พบ response จาก API",
	MissingInfo:     "⚠️ ข้อมูลไม่ครบ: %s",
	MalformedInfo:   "⚠️ รูปแบบข้อมูลไม่ถูกต้อง: %s",
	EmptyInput:      "กรุณาพิมพ์คำสั่ง",
	NotAuthorized:   "กรุณาเข้าสู่ระบบด้วย Google ก่อน",
	AssistantLine:   "Chrono: %s",
	ChatIntro:       "พิมพ์คำสั่งได้เลย /help ดูตัวอย่าง /lang th|en เปลี่ยนภาษา /quit ออกจากโปรแกรม",

	FieldDate:  "วันที่",
	FieldTime:  "เวลา",
	FieldTitle: "ชื่อเหตุการณ์",

	HelpIntro:       "วิธีใช้งาน",
	HelpAddTitle:    "การเพิ่มเหตุการณ์ (Add Event)",
	HelpAddBody:     "เพื่อเพิ่มเหตุการณ์ใหม่ ต้องระบุ:\n- ชื่อเหตุการณ์\n- วันที่\n- เวลา\n\nตัวอย่าง: เพิ่มนัดประชุมพรุ่งนี้ตอนสิบโมง",
	HelpDeleteTitle: "การลบเหตุการณ์ (Delete Event)",
	HelpDeleteBody:  "เพื่อทำการลบเหตุการณ์ ต้องระบุ:\n- ชื่อเหตุการณ์\n- วันที่\n\nตัวอย่าง: ยกเลิกนัดประชุมพรุ่งนี้",
	HelpUpdateTitle: "การอัปเดตเหตุการณ์ (Update Event)",
	HelpUpdateBody:  "เพื่อเปลี่ยนเวลาเหตุการณ์ในวันเดียวกัน ต้องระบุ:\n- ชื่อเหตุการณ์\n- วันที่\n- เวลาใหม่\n\nตัวอย่าง: เปลี่ยนนัดประชุมพรุ่งนี้เป็นสิบเอ็ดโมง",
	HelpViewTitle:   "การดูเหตุการณ์ (View Events)",
	HelpViewBody:    "เพื่อดูรายการเหตุการณ์ในวันใดวันหนึ่ง ต้องระบุ:\n- วันที่ที่ต้องการดู\n\nตัวอย่าง: พรุ่งนี้มีนัดอะไรบ้าง",
}

var english = []string{
	Created, CreateFailed, Deleted, DeletePartial, Updated, UpdatePartial,
	NotFound, NoEvents, ViewHeader, ViewLine, LookupFailed, ModelHTTPError,
	ModelRequest, ModelNoResponse, MissingInfo, MalformedInfo, EmptyInput,
	NotAuthorized, AssistantLine, ChatIntro, FieldDate, FieldTime, FieldTitle,
	HelpIntro, HelpAddTitle, HelpAddBody, HelpDeleteTitle, HelpDeleteBody,
	HelpUpdateTitle, HelpUpdateBody, HelpViewTitle, HelpViewBody,
}

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range english {
		_ = b.SetString(language.English, key, key)
	}
	for key, msg := range thai {
		_ = b.SetString(language.Thai, key, msg)
	}
	return b
}
