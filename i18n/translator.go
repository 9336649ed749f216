package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "tag").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "schema_mismatch":
			msg = "スキーマと修正の宣言が一致しません"
		case "discriminator_unknown":
			msg = "未登録の識別子です"
		case "roundtrip_failure":
			msg = "変換結果を新しい型として読み直せません"
		case "shape_violation":
			msg = "変換結果が型に適合しません"
		case "invalid_version":
			msg = "バージョンが不正です"
		case "fix_failed":
			msg = "修正の適用に失敗しました"
		}
	default: // "en"
		switch code {
		case "schema_mismatch":
			msg = "fix declaration does not match registered schema"
		case "discriminator_unknown":
			msg = "unknown discriminator"
		case "roundtrip_failure":
			msg = "could not re-read output against new type"
		case "shape_violation":
			msg = "output does not conform to type"
		case "invalid_version":
			msg = "invalid version"
		case "fix_failed":
			msg = "fix failed"
		}
	}
	if msg == "" {
		return code
	}
	if detail := data["detail"]; detail != "" {
		msg += " (" + strings.TrimSpace(detail) + ")"
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
