package dedupe

import (
	"math/bits"
	"strings"
	"unicode"

	"github.com/go-dedup/simhash"
)

// sentenceFeatureSet 实现 simhash.FeatureSet，使用词级 unigram + bigram 特征
type sentenceFeatureSet struct {
	text string
}

func (s sentenceFeatureSet) GetFeatures() []simhash.Feature {
	words := strings.FieldsFunc(s.text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		return []simhash.Feature{}
	}

	features := make([]simhash.Feature, 0, 2*len(words))
	for i, w := range words {
		features = append(features, simhash.NewFeature([]byte(w)))
		if i > 0 {
			features = append(features, simhash.NewFeature([]byte(words[i-1]+" "+w)))
		}
	}
	return features
}

// Fingerprint 计算句子的 64 位 SimHash 指纹，调用方负责大小写归一
func Fingerprint(sentence string) uint64 {
	return simhash.NewSimhash().GetSimhash(sentenceFeatureSet{text: sentence})
}

// HammingDistance 两个指纹间不同位的数量（0-64）
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
