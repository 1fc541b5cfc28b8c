package synth

import (
	"fmt"
	"strings"

	"urbanlex/internal/legal"
	"urbanlex/internal/tools"
)

const (
	greetingText = "Olá! Sou o assistente da legislação urbanística de Porto Alegre. " +
		"Posso consultar artigos da LUOS e do PDUS, o zoneamento (ZOT) de cada bairro e os parâmetros construtivos."

	clarificationText = "Para informar o regime urbanístico de um endereço preciso saber o bairro ou a ZOT. " +
		"Em qual bairro fica o imóvel?"

	noResultsText = "Não encontrei informações sobre essa pergunta na legislação consultada. Tente reformular, por exemplo:\n" +
		"- O que diz o artigo N?\n" +
		"- Parâmetros da ZOT N\n" +
		"- Zoneamento do bairro X"

	lowConfidenceText = "Não encontrei uma resposta com segurança suficiente para essa pergunta. " +
		"Tente ser mais específico, citando o artigo, a ZOT ou o bairro."
)

var pluralNames = map[legal.ChunkType]string{
	legal.TypeTitle:      "Títulos",
	legal.TypeChapter:    "Capítulos",
	legal.TypeSection:    "Seções",
	legal.TypeSubsection: "Subseções",
	legal.TypeArticle:    "Artigos",
}

func feminine(t legal.ChunkType) bool {
	return t == legal.TypeSection || t == legal.TypeSubsection
}

func unitName(t legal.ChunkType) string {
	if t == legal.TypeArticle {
		return "Artigo"
	}
	return t.DisplayName()
}

// inDocument is the Portuguese "in the LUOS" / "in the PDUS".
func inDocument(d legal.DocumentType) string {
	if d == legal.PDUS {
		return "no " + string(d)
	}
	return "na " + string(d)
}

// notFoundText names the requested units and the range that does exist in
// each searched document.
func notFoundText(nf *tools.NotFound) string {
	name := unitName(nf.Kind)
	plural := pluralNames[nf.Kind]
	if plural == "" {
		plural = name
	}
	art, arts, none, found := "O", "os", "Nenhum", "encontrado"
	if feminine(nf.Kind) {
		art, arts, none, found = "A", "as", "Nenhuma", "encontrada"
	}

	var b strings.Builder
	if len(nf.Requested) == 1 {
		fmt.Fprintf(&b, "%s %s %s não existe na legislação consultada.", art, name, nf.Requested[0])
	} else {
		fmt.Fprintf(&b, "%s %s %s não existem na legislação consultada.", capitalize(arts), plural, joinPT(nf.Requested))
	}

	if len(nf.Ranges) == 0 {
		fmt.Fprintf(&b, " %s %s foi %s.", none, strings.ToLower(name), found)
		return b.String()
	}
	for _, r := range nf.Ranges {
		where := capitalize(inDocument(r.Document))
		switch len(r.Valid) {
		case 0:
			continue
		case 1:
			fmt.Fprintf(&b, " %s existe apenas %s %s %s.", where, strings.ToLower(art), name, r.Valid[0])
		default:
			fmt.Fprintf(&b, " %s existem apenas %s %s %s a %s.", where, arts, plural, r.Valid[0], r.Valid[len(r.Valid)-1])
		}
	}
	return b.String()
}

// joinPT joins items as "a, b e c".
func joinPT(items []string) string {
	if len(items) <= 1 {
		return strings.Join(items, "")
	}
	return strings.Join(items[:len(items)-1], ", ") + " e " + items[len(items)-1]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
