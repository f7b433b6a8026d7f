package records

import (
	"testing"

	"github.com/rewired-gh/usercube/internal/models"
)

const header = "user_id,hour,day_type,device,content_type,session_minutes,recommended,completed,is_binge"

func TestParse_TypesFields(t *testing.T) {
	raw := header + "\nU01,8,weekday,mobile,music,7,no,0,0\n"
	recs := Parse(raw, models.DefaultSchema())

	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	rec := recs[0]

	tests := []struct {
		field   string
		numeric bool
		text    string
	}{
		{"user_id", false, "U01"},
		{"hour", false, "8"}, // always text even though numeric-looking
		{"day_type", false, "weekday"},
		{"session_minutes", true, "7"},
		{"recommended", false, "no"},
		{"completed", true, "0"},
		{"is_binge", true, "0"},
	}
	for _, tt := range tests {
		v, ok := rec.Get(tt.field)
		if !ok {
			t.Errorf("Field %s missing", tt.field)
			continue
		}
		if v.Numeric != tt.numeric {
			t.Errorf("Field %s numeric = %v, expected %v", tt.field, v.Numeric, tt.numeric)
		}
		if v.String() != tt.text {
			t.Errorf("Field %s = %q, expected %q", tt.field, v.String(), tt.text)
		}
	}
}

func TestParse_SkipsBlankLinesAndLeadingBlanks(t *testing.T) {
	raw := "\n\n" + header + "\r\n\r\nU01,8,weekday,mobile,music,7,no,0,0\r\n   \nU02,9,weekday,mobile,news,6,no,0,0"
	recs := Parse(raw, models.DefaultSchema())

	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	if recs[1].String("user_id") != "U02" {
		t.Errorf("Expected second record U02, got %s", recs[1].String("user_id"))
	}
	if recs[0].String("is_binge") != "0" {
		t.Errorf("Expected trailing \\r to be trimmed, got %q", recs[0].String("is_binge"))
	}
}

func TestParse_ShortRowFillsEmptyText(t *testing.T) {
	raw := header + "\nU01,8,weekday,mobile,music"
	recs := Parse(raw, models.DefaultSchema())

	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	rec := recs[0]

	for _, field := range []string{"recommended", "completed", "is_binge"} {
		v, ok := rec.Get(field)
		if !ok {
			t.Errorf("Field %s missing", field)
			continue
		}
		if v.Numeric || v.Text != "" {
			t.Errorf("Field %s = %+v, expected empty text", field, v)
		}
	}

	minutes, _ := rec.Get("session_minutes")
	if !minutes.Numeric || minutes.Num != 0 {
		t.Errorf("Expected missing session_minutes to default to numeric 0, got %+v", minutes)
	}
}

func TestParse_ExtraValuesDropped(t *testing.T) {
	raw := "user_id,session_minutes\nU01,7,extra,more"
	recs := Parse(raw, models.DefaultSchema())

	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	if got := len(recs[0].Fields()); got != 2 {
		t.Errorf("Expected 2 fields, got %d", got)
	}
}

func TestParse_DurationFallsBackToZero(t *testing.T) {
	raw := "user_id,content_type,session_minutes\nU01,music,abc\nU02,music,12.5"
	recs := Parse(raw, models.DefaultSchema())

	first, _ := recs[0].Get("session_minutes")
	if !first.Numeric || first.Num != 0 {
		t.Errorf("Expected 0 for unparseable duration, got %+v", first)
	}
	second, _ := recs[1].Get("session_minutes")
	if second.Num != 12.5 {
		t.Errorf("Expected 12.5, got %v", second.Num)
	}
}

func TestParse_NonFiniteStaysText(t *testing.T) {
	raw := "user_id,score\nU01,NaN\nU02,Inf"
	recs := Parse(raw, models.DefaultSchema())

	for _, rec := range recs {
		v, _ := rec.Get("score")
		if v.Numeric {
			t.Errorf("Expected %q to stay text", v.Text)
		}
	}
}

func TestParse_GoLiteralFormsStayText(t *testing.T) {
	raw := "user_id,content_type,session_minutes,score\nU01,music,0x1p4,1_000\nU02,music,-0X10,0x10"
	recs := Parse(raw, models.DefaultSchema())

	for _, rec := range recs {
		minutes, _ := rec.Get("session_minutes")
		if !minutes.Numeric || minutes.Num != 0 {
			t.Errorf("Expected duration 0 for hex input, got %+v", minutes)
		}
		score, _ := rec.Get("score")
		if score.Numeric {
			t.Errorf("Expected %q to stay text", score.Text)
		}
	}

	plain := Parse("user_id,score\nU01,1.5e2", models.DefaultSchema())
	if v, _ := plain[0].Get("score"); !v.Numeric || v.Num != 150 {
		t.Errorf("Expected 150 for exponent form, got %+v", v)
	}
}

func TestParse_NumericEntityStaysText(t *testing.T) {
	raw := "user_id,hour,session_minutes\n007,08,3"
	recs := Parse(raw, models.DefaultSchema())

	if got := recs[0].String("user_id"); got != "007" {
		t.Errorf("Expected user_id 007, got %s", got)
	}
	if got := recs[0].String("hour"); got != "08" {
		t.Errorf("Expected hour 08, got %s", got)
	}
}

func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "\n\n", header} {
		recs := Parse(raw, models.DefaultSchema())
		if len(recs) != 0 {
			t.Errorf("Parse(%q) returned %d records, expected 0", raw, len(recs))
		}
		if recs == nil {
			t.Errorf("Parse(%q) returned nil, expected empty list", raw)
		}
	}
}

func TestHeaders(t *testing.T) {
	got := Headers("\n user_id , hour \nU01,8")
	if len(got) != 2 || got[0] != "user_id" || got[1] != "hour" {
		t.Errorf("Headers() = %v", got)
	}
	if Headers("") != nil {
		t.Error("Expected nil headers for empty input")
	}
}
