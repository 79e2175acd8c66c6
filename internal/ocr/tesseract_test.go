package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/cmdexec"
)

const langList = "List of available languages in \"/usr/share/tesseract-ocr/5/tessdata/\" (3):\neng\nosd\nfra\n"

func tesseractStub(recognized string) *cmdexec.Stub {
	return &cmdexec.Stub{Respond: func(c cmdexec.Call) ([]byte, []byte, error) {
		if len(c.Args) > 0 && c.Args[0] == "--list-langs" {
			return []byte(langList), nil, nil
		}
		return []byte(recognized), nil, nil
	}}
}

func TestTesseractLanguage(t *testing.T) {
	assert.Equal(t, "eng", TesseractLanguage("en"))
	assert.Equal(t, "eng+fra", TesseractLanguage("en+FR"))
	assert.Equal(t, "chi_sim", TesseractLanguage("zh"))
	assert.Equal(t, "eng", TesseractLanguage("eng"))
	assert.Equal(t, "eng", TesseractLanguage(""))
}

func TestTesseractFactory_InitChecksLanguage(t *testing.T) {
	stub := tesseractStub("")

	_, err := NewTesseractFactory(TesseractConfig{Language: "en+fr"}, stub, nil)(context.Background())
	require.NoError(t, err)

	_, err = NewTesseractFactory(TesseractConfig{Language: "de"}, stub, nil)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"deu"`)
}

func TestTesseractFactory_MissingBinary(t *testing.T) {
	stub := &cmdexec.Stub{Respond: func(cmdexec.Call) ([]byte, []byte, error) {
		return nil, nil, errors.New(`exec: "tesseract": executable file not found in $PATH`)
	}}
	_, err := NewTesseractFactory(TesseractConfig{Language: "en"}, stub, nil)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--list-langs")
}

func TestTesseractEngine_Recognize(t *testing.T) {
	stub := tesseractStub("Scanned\n\n  Text  \n-----\n\f")
	eng, err := NewTesseractFactory(TesseractConfig{Language: "en", DPI: 300, PSM: 6, TessdataDir: "/td"}, stub, nil)(context.Background())
	require.NoError(t, err)

	frags, err := eng.Recognize(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Scanned", "Text", "-----"}, frags)

	calls := stub.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "--list-langs --tessdata-dir /td", calls[0].Joined())
	assert.Equal(t, "stdin stdout -l eng --psm 6 --dpi 300 --tessdata-dir /td", calls[1].Joined())
	assert.Equal(t, []byte("png-bytes"), calls[1].Stdin)
}

func TestTesseractEngine_TSV(t *testing.T) {
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t",
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t96.5\tScanned",
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t12.0\t~~",
		"5\t1\t1\t1\t1\t3\t0\t0\t10\t10\t91.0\tText",
		"5\t1\t1\t1\t2\t1\t0\t0\t10\t10\t88.0\tpage",
		"",
	}, "\n")
	stub := tesseractStub(tsv)
	eng, err := NewTesseractFactory(TesseractConfig{Language: "en", MinConfidence: 50}, stub, nil)(context.Background())
	require.NoError(t, err)

	frags, err := eng.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Scanned Text", "page"}, frags)
	assert.True(t, strings.HasSuffix(stub.Calls()[1].Joined(), " tsv"))
}

func TestTesseractEngine_RecognizeError(t *testing.T) {
	stub := &cmdexec.Stub{Respond: func(c cmdexec.Call) ([]byte, []byte, error) {
		if c.Args[0] == "--list-langs" {
			return []byte(langList), nil, nil
		}
		return nil, []byte("Error in pixReadMem"), errors.New("exit status 1")
	}}
	eng, err := NewTesseractFactory(TesseractConfig{Language: "en"}, stub, nil)(context.Background())
	require.NoError(t, err)

	_, err = eng.Recognize(context.Background(), []byte("bad"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixReadMem")
}

func TestParseTSV_MeanConfidence(t *testing.T) {
	out := "header\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t80\ta\n5\t1\t1\t1\t1\t2\t0\t0\t1\t1\t60\tb\n"
	frags, mean := parseTSV(out, 0)
	assert.Equal(t, []string{"a b"}, frags)
	assert.InDelta(t, 0.70, mean, 1e-9)
}

func TestParseTSV_DropsRuleLineWords(t *testing.T) {
	out := "header\n5\t1\t1\t1\t1\t1\t0\t0\t1\t1\t90\tTotal\n5\t1\t1\t1\t1\t2\t0\t0\t1\t1\t90\t-----\n"
	frags, _ := parseTSV(out, 0)
	assert.Equal(t, []string{"Total"}, frags)
}

func TestLinesToFragments_KeepsEveryNonEmptyLine(t *testing.T) {
	frags := linesToFragments("Hello  there\r\n\n-----\n\f")
	assert.Equal(t, []string{"Hello  there", "-----"}, frags)
}

func TestJoinFragments(t *testing.T) {
	assert.Equal(t, "Hello big\t\tworld ____", JoinFragments([]string{" Hello ", "", "big\t\tworld", "____"}))
	assert.Equal(t, "", JoinFragments(nil))
}
