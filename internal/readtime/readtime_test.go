package readtime

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "empty", content: "", want: "<1 min read"},
		{name: "whitespace only", content: "   \n\t", want: "1 min read"},
		{name: "one word", content: "hello", want: "1 min read"},
		{name: "exactly two hundred", content: strings.Repeat("word ", 200), want: "1 min read"},
		{name: "two hundred and one", content: strings.Repeat("word ", 201), want: "2 min read"},
		{name: "markup only", content: "<p></p> ## ** __", want: "1 min read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Calculate(tt.content))
		})
	}
}

func TestWordCountDropsSpans(t *testing.T) {
	assert.Equal(t, 2, WordCount("before ![a cat on a mat](https://x.test/cat.png) after"))
	assert.Equal(t, 2, WordCount("read [the full annual report](https://x.test/r) today"))
	assert.Equal(t, 3, WordCount("<h1>Hello</h1> <em>brave</em> world"))
	assert.Equal(t, 2, WordCount("# **Bold** `code`"))
}

func TestMinutesMonotonic(t *testing.T) {
	prev := 0
	for n := 0; n <= 1200; n += 37 {
		m := Minutes(strings.Repeat("w ", n))
		assert.GreaterOrEqual(t, m, prev, "words=%d", n)
		assert.GreaterOrEqual(t, m, 1)
		prev = m
	}
}

func TestCalculateCorpus(t *testing.T) {
	corpus := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"short_paragraph", "Planting mangroves along the coast protects the village."},
		{"long_article", strings.Repeat("word ", 450)},
		{"bold_markdown", strings.Repeat("**bold** ", 201)},
		{"spans_removed", strings.Repeat("word ", 200) + "![alt text here](http://x.test/y.png) [a link with many words](http://z.test)"},
		{"html_paragraphs", strings.Repeat("<p>word</p> ", 400)},
	}

	var b strings.Builder
	for _, c := range corpus {
		fmt.Fprintf(&b, "%s: %s\n", c.name, Calculate(c.content))
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "corpus", []byte(b.String()))
}
