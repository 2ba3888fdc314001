package catalog

import (
	"fmt"
	"strings"
)

// Language is a supported translation language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var languages = []Language{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
}

var phrases = map[string]map[string]string{
	"en": {"Hello world": "Hello world", "Good morning": "Good morning", "How are you?": "How are you?", "Thank you": "Thank you", "Goodbye": "Goodbye"},
	"es": {"Hello world": "Hola mundo", "Good morning": "Buenos días", "How are you?": "¿Cómo estás?", "Thank you": "Gracias", "Goodbye": "Adiós"},
	"fr": {"Hello world": "Bonjour le monde", "Good morning": "Bonjour", "How are you?": "Comment ça va?", "Thank you": "Merci", "Goodbye": "Au revoir"},
	"de": {"Hello world": "Hallo Welt", "Good morning": "Guten Morgen", "How are you?": "Wie geht es dir?", "Thank you": "Danke", "Goodbye": "Auf Wiedersehen"},
	"it": {"Hello world": "Ciao mondo", "Good morning": "Buongiorno", "How are you?": "Come stai?", "Thank you": "Grazie", "Goodbye": "Arrivederci"},
}

var detectKeywords = []struct {
	lang  string
	words []string
}{
	{"es", []string{"hola", "gracias", "buenos días"}},
	{"fr", []string{"bonjour", "merci", "au revoir"}},
	{"de", []string{"hallo", "danke", "guten"}},
	{"it", []string{"ciao", "grazie", "buongiorno"}},
}

// Translation is the /api/translate payload.
type Translation struct {
	OriginalText     string `json:"original_text"`
	TranslatedText   string `json:"translated_text"`
	From             string `json:"from"`
	To               string `json:"to"`
	DetectedLanguage string `json:"detected_language,omitempty"`
}

// Languages lists the supported languages.
func (c *Catalog) Languages() []Language {
	return append([]Language(nil), languages...)
}

// DetectLanguage guesses the language from a few keywords, defaulting to en.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	for _, k := range detectKeywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.lang
			}
		}
	}
	return "en"
}

// Translate looks text up in the phrase table. Unknown phrases come back
// prefixed with the target code: "[fr] text".
func (c *Catalog) Translate(text, from, to string) (Translation, error) {
	table, ok := phrases[to]
	if !ok {
		return Translation{}, fmt.Errorf("%w: target language %s", ErrUnsupported, to)
	}

	out := Translation{OriginalText: text, To: to, From: from}
	if from == "" {
		out.From = DetectLanguage(text)
		out.DetectedLanguage = out.From
	}

	if translated, ok := table[text]; ok {
		out.TranslatedText = translated
	} else {
		out.TranslatedText = "[" + to + "] " + text
	}
	return out, nil
}
