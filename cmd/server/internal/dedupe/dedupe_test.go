package dedupe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe_AdjacentOnly(t *testing.T) {
	got := Dedupe("The cat sat. The cat sat. Later, the cat sat again.")
	assert.Equal(t, "The cat sat. Later, the cat sat again.", got.String())
}

func TestDedupe_Cases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "   ", []string{}},
		{"single sentence", "Hello world.", []string{"Hello world."}},
		{"case insensitive", "Thank you. THANK YOU. thank you. Bye.", []string{"Thank you", "Bye."}},
		{"unicode folding", "Straße ist da. STRASSE IST DA. Ende", []string{"Straße ist da", "Ende"}},
		{"non adjacent kept", "A. B. A. B", []string{"A", "B", "A", "B"}},
		{"empty fragments dropped", "One. . . One. Two", []string{"One", "Two"}},
		{"trims fragments", "  Hi there .   hi there . ok", []string{"Hi there", "ok"}},
		{"runs collapse to one", "x. x. x. x. y. y. x", []string{"x", "y", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dedupe(tt.input).Sentences)
		})
	}
}

func TestDedupe_NoAdjacentEqualAndIdempotent(t *testing.T) {
	inputs := []string{
		"The cat sat. The cat sat. Later, the cat sat again.",
		"a.. a.. b. B. b.c. c",
		"Yes. yes. YES. No. no. Yes",
		"trailing. trailing. ",
		"One.. One. Two",
	}
	for _, in := range inputs {
		once := Dedupe(in)
		for i := 1; i < len(once.Sentences); i++ {
			assert.False(t, strings.EqualFold(once.Sentences[i-1], once.Sentences[i]), "input %q", in)
		}
		twice := Dedupe(once.String())
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestFilter_NearDuplicates(t *testing.T) {
	text := "we will ship the release on friday. we will ship the release on friday afternoon. budget review is next"

	exact := Filter{NearDuplicateDistance: -1}.Apply(text)
	assert.Len(t, exact.Sentences, 3)

	identicalOnly := Filter{NearDuplicateDistance: 0}.Apply("Ship it. ship it. Ship it now")
	assert.Equal(t, []string{"Ship it", "Ship it now"}, identicalOnly.Sentences)

	loose := Filter{NearDuplicateDistance: 64}.Apply(text)
	assert.Equal(t, []string{"we will ship the release on friday"}, loose.Sentences)
}

func TestFilter_NearDuplicateIdempotent(t *testing.T) {
	f := Filter{NearDuplicateDistance: 10}
	in := "meeting starts now. meeting starts now!. agenda first. agenda first. wrap up"
	once := f.Apply(in)
	assert.Equal(t, once, f.Apply(once.String()))
}

func TestHammingDistance(t *testing.T) {
	assert.Equal(t, 0, HammingDistance(0xFF, 0xFF))
	assert.Equal(t, 64, HammingDistance(0, ^uint64(0)))
	assert.Equal(t, 3, HammingDistance(0b1010, 0b0101^0b1000))
	assert.Equal(t, Fingerprint("same words here"), Fingerprint("same words here"))
}
