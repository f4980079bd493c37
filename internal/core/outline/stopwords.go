package outline

import "strings"

// stopwords are canonical forms ignored when indexing titles and reading
// questions. Besides function words the list carries clinical filler that
// appears in almost every heading and dosage units.
var stopwords = toSet(`
a o as os um uma uns umas de da do das dos e ou em na no nas nos ao aos
para pra por pelo pela pelos pelas com sem sob sobre entre ate apos desde
que qual quais quando como onde quanto quantos quanta quantas porque
se seu sua seus suas meu minha este esta estes estas esse essa esses essas isso isto
ser sao foi sera deve devem pode podem tem ha fazer feito mais menos muito
the of and or in on for with to what how which is are
paciente pacientes tratamento manejo abordagem conduta condutas geral gerais
capitulo parte secao introducao
mg mcg ug kg ml ui min seg mmhg meq mmol dose doses
`)

func toSet(words string) map[string]struct{} {
	fields := strings.Fields(words)
	set := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		set[w] = struct{}{}
	}
	return set
}

func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// foldPlural maps common Portuguese plural endings onto the singular so
// "compressões" and "compressão" share an index key. Both sides of a
// lookup go through it, so an imperfect singular is harmless.
func foldPlural(w string) string {
	if len(w) < 5 {
		return w
	}
	switch {
	case strings.HasSuffix(w, "oes"), strings.HasSuffix(w, "aes"):
		return w[:len(w)-3] + "ao"
	case strings.HasSuffix(w, "ais"):
		return w[:len(w)-3] + "al"
	case strings.HasSuffix(w, "eis"):
		return w[:len(w)-3] + "el"
	case strings.HasSuffix(w, "ns"):
		return w[:len(w)-2] + "m"
	case strings.HasSuffix(w, "res"), strings.HasSuffix(w, "zes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	default:
		return w
	}
}
