package keyboard

import (
	"testing"

	"github.com/edubrain/answer-backend/internal/entity"
)

func TestParseCallback(t *testing.T) {
	data, err := ParseCallback("type:single")
	if err != nil {
		t.Fatalf("ParseCallback: %v", err)
	}
	if data.Action != "type" || data.Value != "single" {
		t.Fatalf("parsed %q/%q, want type/single", data.Action, data.Value)
	}
}

func TestParseCallbackKeepsColonsInValue(t *testing.T) {
	data, err := ParseCallback("action:a:b")
	if err != nil {
		t.Fatalf("ParseCallback: %v", err)
	}
	if data.Value != "a:b" {
		t.Fatalf("value = %q, want a:b", data.Value)
	}
}

func TestParseCallbackRejectsMalformed(t *testing.T) {
	if _, err := ParseCallback("nocolon"); err == nil {
		t.Fatal("expected error for data without separator")
	}
}

func TestEncodeCallbackRoundTrip(t *testing.T) {
	data, err := ParseCallback(EncodeCallback("export", "pdf"))
	if err != nil {
		t.Fatalf("ParseCallback: %v", err)
	}
	if data.Action != "export" || data.Value != "pdf" {
		t.Fatalf("parsed %q/%q, want export/pdf", data.Action, data.Value)
	}
}

func TestTypeSelectionKeyboard(t *testing.T) {
	kb := NewBuilder().TypeSelectionKeyboard()

	var typeValues []string
	sawCancel := false
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData == nil {
				t.Fatalf("button %q has no callback data", btn.Text)
			}
			data, err := ParseCallback(*btn.CallbackData)
			if err != nil {
				t.Fatalf("button %q: %v", btn.Text, err)
			}
			switch data.Action {
			case "type":
				typeValues = append(typeValues, data.Value)
			case "action":
				if data.Value == "cancel" {
					sawCancel = true
				}
			default:
				t.Errorf("button %q carries unexpected action %q", btn.Text, data.Action)
			}
		}
	}

	want := []string{
		string(entity.TypeSingle),
		string(entity.TypeMultiple),
		string(entity.TypeJudgement),
		string(entity.TypeCompletion),
		"any",
	}
	if len(typeValues) != len(want) {
		t.Fatalf("type values = %v, want %v", typeValues, want)
	}
	for i := range want {
		if typeValues[i] != want[i] {
			t.Fatalf("type values = %v, want %v", typeValues, want)
		}
	}
	if !sawCancel {
		t.Error("keyboard has no cancel button")
	}
}

func TestExportFormatKeyboard(t *testing.T) {
	kb := NewBuilder().ExportFormatKeyboard()

	count := 0
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			data, err := ParseCallback(*btn.CallbackData)
			if err != nil {
				t.Fatalf("button %q: %v", btn.Text, err)
			}
			if data.Action != "export" {
				t.Errorf("button %q action = %q, want export", btn.Text, data.Action)
			}
			if err := entity.ExportFormat(data.Value).Validate(); err != nil {
				t.Errorf("button %q carries unknown format %q", btn.Text, data.Value)
			}
			count++
		}
	}
	if count != 3 {
		t.Fatalf("export keyboard has %d buttons, want 3", count)
	}
}

func TestConfirmCancelKeyboard(t *testing.T) {
	kb := NewBuilder().ConfirmCancelKeyboard()

	var values []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			data, err := ParseCallback(*btn.CallbackData)
			if err != nil {
				t.Fatalf("button %q: %v", btn.Text, err)
			}
			if data.Action != "confirm" {
				t.Errorf("button %q action = %q, want confirm", btn.Text, data.Action)
			}
			values = append(values, data.Value)
		}
	}
	if len(values) != 2 || values[0] != "cancel" || values[1] != "continue" {
		t.Fatalf("confirm values = %v, want [cancel continue]", values)
	}
}
