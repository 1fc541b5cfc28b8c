package synth

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"urbanlex/internal/legal"
	"urbanlex/internal/query"
	"urbanlex/internal/scoring"
	"urbanlex/internal/zoning"
)

func certificationText(c *legal.Chunk) string {
	return fmt.Sprintf("A exigência de Certificação em Sustentabilidade Ambiental está prevista no %s da %s:\n\n%s",
		c.Label(), docName(c), quote(c.Text))
}

func subDistrictText(c *legal.Chunk) string {
	return fmt.Sprintf("Regra específica do 4º Distrito, prevista no %s da %s:\n\n%s",
		c.Label(), docName(c), quote(c.Text))
}

// articleText cites every exact-match chunk in article order, or the winner alone.
func articleText(ranked []scoring.RankedResult) string {
	var cited []*legal.Chunk
	for _, r := range ranked {
		if r.ExactMatch && r.Chunk != nil && r.Chunk.ArticleNumber > 0 {
			cited = append(cited, r.Chunk)
		}
	}
	if len(cited) == 0 {
		cited = []*legal.Chunk{ranked[0].Chunk}
	}
	sort.SliceStable(cited, func(i, j int) bool {
		if cited[i].DocumentType != cited[j].DocumentType {
			return cited[i].DocumentType < cited[j].DocumentType
		}
		if cited[i].ArticleNumber != cited[j].ArticleNumber {
			return cited[i].ArticleNumber < cited[j].ArticleNumber
		}
		return cited[i].Ordinal < cited[j].Ordinal
	})

	var b strings.Builder
	for i, c := range cited {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s (%s):\n%s", c.Label(), docName(c), quote(c.Text))
	}
	return b.String()
}

type paramField struct {
	param string
	label string
	unit  string
	value func(zoning.Row) *float64
}

// zoneFields fixes the order of parameters in zone answers.
var zoneFields = []paramField{
	{zoning.ParamHeight, "altura máxima", " m", func(r zoning.Row) *float64 { return r.HeightMax }},
	{zoning.ParamFAR, "coeficiente de aproveitamento básico", "", func(r zoning.Row) *float64 { return r.FARBasic }},
	{zoning.ParamFAR, "coeficiente de aproveitamento máximo", "", func(r zoning.Row) *float64 { return r.FARMax }},
	{zoning.ParamOccupancy, "taxa de ocupação", "", func(r zoning.Row) *float64 { return r.OccupancyRate }},
	{zoning.ParamPermeability, "taxa de permeabilidade", "", func(r zoning.Row) *float64 { return r.PermeabilityRate }},
	{zoning.ParamSetback, "recuo", " m", func(r zoning.Row) *float64 { return r.Setback }},
}

// zoneText lists every ranked zone row grouped by neighborhood, in zone order.
// Only the asked parameters are shown when the query named any.
func zoneText(qc *query.Context, ranked []scoring.RankedResult) string {
	var rows []zoning.Row
	for _, r := range ranked {
		if r.Zone != nil {
			rows = append(rows, *r.Zone)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Neighborhood != rows[j].Neighborhood {
			return rows[i].Neighborhood < rows[j].Neighborhood
		}
		return rows[i].ZoneCode < rows[j].ZoneCode
	})

	fields := zoneFields
	if len(qc.Parameters) > 0 {
		fields = nil
		for _, f := range zoneFields {
			for _, p := range qc.Parameters {
				if f.param == p {
					fields = append(fields, f)
					break
				}
			}
		}
	}

	var b strings.Builder
	current := ""
	for _, row := range rows {
		if row.Neighborhood != current {
			if current != "" {
				b.WriteString("\n\n")
			}
			current = row.Neighborhood
			fmt.Fprintf(&b, "Regime urbanístico em %s:", current)
		}
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f.label+": "+number(f.value(row), f.unit))
		}
		fmt.Fprintf(&b, "\n- %s: %s", row.ZoneCode, strings.Join(parts, "; "))
	}
	return b.String()
}

var parameterLabels = map[string]string{
	zoning.ParamHeight:       "altura máxima",
	zoning.ParamFAR:          "coeficiente de aproveitamento máximo",
	zoning.ParamOccupancy:    "taxa de ocupação",
	zoning.ParamPermeability: "taxa de permeabilidade",
	zoning.ParamSetback:      "recuo",
}

func aggregateText(res *zoning.AggregateResult) string {
	var b strings.Builder
	q := res.Query
	switch q.Shape {
	case zoning.ShapeCountByCategory:
		if q.Category == zoning.CategoryRisk {
			b.WriteString("Bairros com áreas de risco, por categoria:")
		} else {
			b.WriteString("Número de zonas (ZOT) por bairro:")
		}
		for _, r := range res.Rows {
			fmt.Fprintf(&b, "\n- %s: %s", r.Key, formatFloat(r.Value))
		}
	case zoning.ShapeAverageByNeighborhood:
		fmt.Fprintf(&b, "Média de %s por bairro:", parameterLabels[q.Parameter])
		for _, r := range res.Rows {
			v := r.Value
			fmt.Fprintf(&b, "\n- %s: %s", r.Key, number(&v, unitFor(q.Parameter)))
		}
	case zoning.ShapeListByZone:
		fmt.Fprintf(&b, "Bairros com a %s:", q.ZoneCode)
		for _, r := range res.Rows {
			fmt.Fprintf(&b, "\n- %s", r.Key)
		}
	}
	return b.String()
}

func genericText(ranked []scoring.RankedResult) string {
	var b strings.Builder
	b.WriteString("Trechos relevantes encontrados:")
	n := 0
	for _, r := range ranked {
		if n == maxExcerpts {
			break
		}
		text := r.Text()
		if text == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "\n\n%d. %s: %s", n, r.Label(), quote(excerpt(text)))
	}
	return b.String()
}

func unitFor(param string) string {
	for _, f := range zoneFields {
		if f.param == param {
			return f.unit
		}
	}
	return ""
}

// number renders v with a decimal comma, or the missing marker.
func number(v *float64, unit string) string {
	if v == nil {
		return missing
	}
	return formatFloat(*v) + unit
}

func formatFloat(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

func docName(c *legal.Chunk) string {
	if c.DocumentType == "" {
		return "legislação"
	}
	return string(c.DocumentType)
}

func quote(s string) string {
	return "\"" + strings.TrimSpace(s) + "\""
}

func excerpt(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= excerptLen {
		return string(r)
	}
	return strings.TrimSpace(string(r[:excerptLen])) + "..."
}
