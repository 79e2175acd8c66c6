package ocr

import (
	"strconv"
	"strings"
)

// tesseract TSV columns:
// level page_num block_num par_num line_num word_num left top width height conf text
const (
	tsvLevel = iota
	tsvPage
	tsvBlock
	tsvPar
	tsvLine
	tsvWord
	_
	_
	_
	_
	tsvConf
	tsvText
	tsvColumns
)

const tsvWordLevel = "5"

// parseTSV groups recognized words into line fragments in reading order, dropping
// words whose confidence is below minConf (0..100) and rule-line words. It also returns the mean word
// confidence in 0..1 over the words it kept.
func parseTSV(out string, minConf float64) ([]string, float64) {
	type lineKey struct{ page, block, par, line string }

	var (
		order []lineKey
		words = map[lineKey][]string{}
		sum   float64
		n     int
	)
	for i, ln := range strings.Split(out, "\n") {
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < tsvColumns || cols[tsvLevel] != tsvWordLevel {
			continue
		}
		text := strings.TrimSpace(cols[tsvText])
		if text == "" || reRuleNoise.MatchString(text) {
			continue
		}
		conf, err := strconv.ParseFloat(cols[tsvConf], 64)
		if err != nil || conf < 0 || conf < minConf {
			continue
		}
		key := lineKey{cols[tsvPage], cols[tsvBlock], cols[tsvPar], cols[tsvLine]}
		if _, seen := words[key]; !seen {
			order = append(order, key)
		}
		words[key] = append(words[key], text)
		sum += conf
		n++
	}

	frags := make([]string, 0, len(order))
	for _, k := range order {
		frags = append(frags, strings.Join(words[k], " "))
	}
	if n == 0 {
		return frags, 0
	}
	return frags, sum / float64(n) / 100
}
