package keywords

// Stopword lists per supported language. Tokens are matched after
// normalization (lowercase, diacritics folded), so entries here are stored
// folded too ("etre", not "être").

var stopwordsEN = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can",
	"had", "her", "was", "one", "our", "out", "day", "get", "has", "him",
	"his", "how", "its", "may", "new", "now", "old", "see", "two", "way",
	"who", "did", "yes", "this", "that", "with", "have", "from", "they",
	"will", "would", "there", "their", "what", "about", "which", "when",
	"your", "more", "other", "into", "than", "then", "them", "these",
	"some", "could", "been", "were", "also", "does", "each", "very",
}

var stopwordsFR = []string{
	"les", "des", "est", "une", "dans", "pour", "que", "qui", "sur", "pas",
	"par", "avec", "son", "ses", "aux", "ont", "mais", "comme", "tout",
	"nous", "vous", "ils", "elle", "leur", "cette", "ces", "aussi", "plus",
	"fait", "etre", "avoir", "sont", "peut", "entre", "ainsi", "donc",
	"vers", "chez", "sans", "sous", "apres", "avant", "meme", "bien",
}

var stopwordsDE = []string{
	"der", "die", "das", "und", "ist", "von", "mit", "den", "dem", "ein",
	"eine", "einen", "auf", "fur", "nicht", "auch", "sich", "aus", "bei",
	"nach", "uber", "wenn", "aber", "noch", "wie", "nur", "zum", "zur",
	"sind", "haben", "werden", "wird", "kann", "mussen", "durch", "oder",
	"ihre", "diese", "dieser", "dieses", "sein", "ihren", "als", "man",
}

var stopwordsES = []string{
	"los", "las", "una", "del", "que", "con", "por", "para", "como", "mas",
	"pero", "sus", "este", "esta", "entre", "cuando", "muy", "sin", "sobre",
	"tambien", "hasta", "hay", "donde", "quien", "desde", "todo", "nos",
	"durante", "estados", "todos", "uno", "les", "contra", "otros", "ese",
	"eso", "ante", "ellos", "esto", "antes", "algunos", "unos", "otro",
	"otras", "otra", "tanto", "esa", "estos", "mucho", "ser", "son",
}

var stopwordsIT = []string{
	"che", "con", "per", "una", "del", "della", "nel", "alla", "dei",
	"delle", "gli", "come", "anche", "piu", "questo", "questa", "sono",
	"essere", "hanno", "dalla", "dal", "suo", "sua", "loro", "nella",
	"quando", "dove", "quindi", "senza", "dopo", "tra", "fra", "tutti",
	"tutto", "ogni", "non", "era", "viene", "fare", "stato", "alle",
}

var stopwordsPT = []string{
	"que", "nao", "uma", "com", "para", "por", "mais", "dos", "das",
	"como", "mas", "foi", "ele", "ela", "seu", "sua", "sao", "quando",
	"muito", "nos", "esse", "essa", "este", "esta", "entre", "ser",
	"tem", "sem", "mesmo", "aos", "seus", "suas", "pela", "pelo", "ate",
	"isso", "tambem", "depois", "todos", "qual", "nas", "ter", "estao",
}

var stopwordsNL = []string{
	"van", "een", "het", "voor", "met", "zijn", "dat", "die", "aan", "als",
	"bij", "ook", "maar", "naar", "uit", "over", "door", "worden", "wordt",
	"niet", "deze", "kunnen", "kunt", "heeft", "hebben", "meer", "dan",
	"wat", "nog", "wel", "moet", "moeten", "onze", "ons", "hun", "tot",
}

var stopwordsPL = []string{
	"nie", "jest", "sie", "dla", "oraz", "jak", "ale", "czy", "przez",
	"tym", "tego", "aby", "lub", "ktore", "ktory", "ktora", "jego", "jej",
	"ich", "tylko", "juz", "byc", "moze", "mozna", "przy", "bardzo",
	"takze", "gdy", "tak", "bez", "pod", "nad", "ten", "tam", "jako",
}

var stopwordsRU = []string{
	"это", "как", "что", "для", "его", "она", "они", "был", "была", "были",
	"при", "или", "так", "уже", "еще", "только", "может", "быть", "когда",
	"даже", "после", "есть", "чем", "этот", "эта", "эти", "надо", "нет",
	"без", "более", "очень", "того", "также", "где", "который",
}

// stopwordSets maps language codes to prebuilt lookup sets.
var stopwordSets = buildStopwordSets(map[string][]string{
	"en": stopwordsEN,
	"fr": stopwordsFR,
	"de": stopwordsDE,
	"es": stopwordsES,
	"it": stopwordsIT,
	"pt": stopwordsPT,
	"nl": stopwordsNL,
	"pl": stopwordsPL,
	"ru": stopwordsRU,
})

func buildStopwordSets(lists map[string][]string) map[string]map[string]struct{} {
	sets := make(map[string]map[string]struct{}, len(lists))
	for lang, words := range lists {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[Normalize(w)] = struct{}{}
		}
		sets[lang] = set
	}
	return sets
}

// stopwordsFor returns the stopword set for a language code.
// Unknown languages fall back to English.
func stopwordsFor(language string) map[string]struct{} {
	if set, ok := stopwordSets[language]; ok {
		return set
	}
	return stopwordSets["en"]
}
