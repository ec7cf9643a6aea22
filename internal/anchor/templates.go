package anchor

// languageTemplates holds the per-language anchor phrasings for the
// categories that are not derived from the target's own text.
type languageTemplates struct {
	generic  string
	cta      string // %s = target title
	question string // %s = target title
}

var templates = map[string]languageTemplates{
	"en": {
		generic:  "read more",
		cta:      "check our guide on %s",
		question: "What should you know about %s?",
	},
	"fr": {
		generic:  "en savoir plus",
		cta:      "consultez notre guide sur %s",
		question: "Que faut-il savoir sur %s ?",
	},
	"de": {
		generic:  "mehr erfahren",
		cta:      "lesen Sie unseren Leitfaden zu %s",
		question: "Was sollten Sie über %s wissen?",
	},
	"es": {
		generic:  "leer más",
		cta:      "consulta nuestra guía sobre %s",
		question: "¿Qué debes saber sobre %s?",
	},
	"it": {
		generic:  "scopri di più",
		cta:      "consulta la nostra guida su %s",
		question: "Cosa devi sapere su %s?",
	},
	"pt": {
		generic:  "saiba mais",
		cta:      "confira o nosso guia sobre %s",
		question: "O que você precisa saber sobre %s?",
	},
	"nl": {
		generic:  "lees meer",
		cta:      "bekijk onze gids over %s",
		question: "Wat moet u weten over %s?",
	},
	"pl": {
		generic:  "dowiedz się więcej",
		cta:      "sprawdź nasz przewodnik o %s",
		question: "Co warto wiedzieć o %s?",
	},
	"ru": {
		generic:  "узнать больше",
		cta:      "смотрите наш гид по теме %s",
		question: "Что нужно знать о %s?",
	},
}

// templatesFor returns the templates for a language code.
// Unknown languages fall back to English.
func templatesFor(language string) languageTemplates {
	if t, ok := templates[language]; ok {
		return t
	}
	return templates["en"]
}
