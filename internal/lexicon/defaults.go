package lexicon

import "reputation-service/internal/models"

var defaultCategories = []CategorySet{
	{
		Category: models.DeathThreat,
		Weight:   9.0,
		Telugu:   []string{"చచ్చిపో", "చచ్చినట్టే", "చంప", "చావు", "కొట్టేస్తా", "హత్య"},
		English:  []string{"die", "kill", "death", "murder", "assassinate", "eliminate"},
	},
	{
		Category: models.Occult,
		Weight:   8.5,
		Telugu:   []string{"చేతబడి", "చేతబడ", "క్షుద్ర", "మంత్రం", "వశీకరణ", "తంత్రం", "చేతవిద్య"},
		English:  []string{"black magic", "witchcraft", "sorcery", "occult", "dark magic", "voodoo", "spell"},
	},
	{
		Category: models.Violence,
		Weight:   8.0,
		Telugu:   []string{"కొట్టు", "హింస", "దాడి", "చెంప", "దెబ్బ"},
		English:  []string{"beat", "violence", "attack", "assault", "harm", "hurt"},
	},
	{
		Category: models.Legal,
		Weight:   7.0,
		Telugu:   []string{"అరెస్ట్", "కేసు", "కోర్టు", "పోలీసు", "జైలు", "శిక్ష"},
		English:  []string{"arrest", "case", "court", "police", "jail", "lawsuit", "legal action"},
	},
	{
		Category: models.ReputationAttack,
		Weight:   6.0,
		Telugu:   []string{"మోసం", "దొంగ", "మోసగాడు", "మోసపూరిత", "అవినీతి", "భ్రష్టు"},
		English:  []string{"fraud", "cheat", "scam", "liar", "dishonest", "corrupt", "criminal"},
	},
	{
		Category: models.BusinessThreat,
		Weight:   3.5, // below the Medium cut point, so one plain mention is Low
		Telugu:   []string{"బాంబ్", "పేలుడు", "మూసివేత", "నాశనం", "దోచుకు", "లూటీ"},
		English:  []string{"bomb", "explosion", "destroy", "close down", "ruin", "loot", "steal", "rob", "exploit"},
	},
}

var defaultSentiment = map[models.Track]SentimentTerms{
	models.TrackTelugu: {
		Positive: []string{"చాలా బాగుంది", "అద్భుతం", "మంచిది", "బాగుంది", "సూపర్", "ధన్యవాదాలు", "అభినందనలు"},
		Negative: []string{"చెత్త", "దారుణం", "మోసం", "అరెస్ట్", "కేసు", "చేతబడి", "అవినీతి", "సిగ్గు"},
	},
	models.TrackEnglish: {
		Positive: []string{"good", "great", "excellent", "amazing", "wonderful", "best", "fantastic", "inspiring", "love", "awesome", "brilliant", "thank"},
		Negative: []string{"bad", "terrible", "awful", "worst", "horrible", "hate", "fraud", "scam", "disgusting", "shame", "useless"},
	},
}

var defaultStopWords = map[models.Track][]string{
	models.TrackTelugu: {
		"అని", "అయి", "అయ్యారు", "అద్దు", "ఇది", "ఈ", "ఆ", "వా", "మా", "నా", "చే", "కి",
		"లో", "తో", "కు", "గా", "వరకు", "దగ్గర", "వైపు", "ఉంది", "వుంది", "చేసి",
	},
	models.TrackEnglish: {
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
		"is", "are", "was", "were", "be", "been", "have", "has", "had", "do", "does", "did",
		"will", "would", "could", "should", "this", "that", "these", "those", "you", "your",
		"they", "them", "their", "from", "what", "which", "who", "also", "just", "very",
	},
}

var defaultKeyFigures = []string{
	"సంధ్య శ్రీధర్ రావు",
	"sandhya sridhar rao",
	"sridhar rao",
	"మాగంటి గోపినాథ్",
	"maganti gopinath",
	"gopinath",
	"సంధ్య కన్వెన్షన్",
	"sandhya convention",
}
