// Package dictionary loads the recognition character set and enforces the
// layout the recognition model's output classes are trained against: index
// 0 reserved for the CTC blank symbol (never emitted as text), the
// dictionary file's tokens at indices 1..N in file order, and a trailing
// space token at index N+1. This layout is a contract with the model file,
// not an implementation choice, and must not be renumbered.
package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

const blankToken = ""

// Dictionary maps recognition model class indices to text tokens under the
// blank(0) / file-tokens(1..N) / space(N+1) layout.
type Dictionary struct {
	indexToToken map[int]string
	tokenToIndex map[string]int
	size         int // total classes, including blank and the trailing space
}

// BlankIndex is always 0.
func (d *Dictionary) BlankIndex() int { return 0 }

// SpaceIndex is always Size()-1.
func (d *Dictionary) SpaceIndex() int { return d.size - 1 }

// Size returns the total number of classes: blank + file tokens + space.
func (d *Dictionary) Size() int { return d.size }

// Token returns the text for a class index, or "" for the blank index or an
// out-of-range index.
func (d *Dictionary) Token(index int) string {
	if d == nil {
		return ""
	}
	return d.indexToToken[index]
}

// Index returns the class index for a token, or -1 if the token is not in
// the dictionary.
func (d *Dictionary) Index(token string) int {
	if d == nil {
		return -1
	}
	if idx, ok := d.tokenToIndex[token]; ok {
		return idx
	}
	return -1
}

// Load reads a dictionary file where each line is one token, in file order
// (an empty line becomes an empty-string token), and builds the blank/tokens/space layout around it. Leading
// UTF-8 BOM on the first line is stripped; trailing newline characters are
// stripped but other whitespace in a line is preserved, since some
// dictionaries carry meaningful whitespace tokens.
func Load(path string) (*Dictionary, error) {
	if path == "" {
		return nil, errors.New("dictionary path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // dictionary path is operator-supplied configuration
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	var fileTokens []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		line = strings.TrimSuffix(line, "\r")
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\xef\xbb\xbf")
		}
		fileTokens = append(fileTokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if len(fileTokens) == 0 {
		return nil, fmt.Errorf("dictionary is empty: %s", path)
	}

	return build(fileTokens), nil
}

// build assembles the blank(0) / fileTokens(1..N) / space(N+1) layout.
func build(fileTokens []string) *Dictionary {
	size := len(fileTokens) + 2
	idxTo := make(map[int]string, size)
	toIdx := make(map[string]int, size)

	idxTo[0] = blankToken
	for i, tok := range fileTokens {
		idx := i + 1
		idxTo[idx] = tok
		if _, exists := toIdx[tok]; !exists {
			toIdx[tok] = idx
		}
	}
	spaceIdx := len(fileTokens) + 1
	idxTo[spaceIdx] = " "
	if _, exists := toIdx[" "]; !exists {
		toIdx[" "] = spaceIdx
	}

	return &Dictionary{indexToToken: idxTo, tokenToIndex: toIdx, size: size}
}

// Filter drops runes from text that have no corresponding token in the
// dictionary, leaving recognized characters untouched.
func (d *Dictionary) Filter(text string) string {
	if d == nil || len(d.tokenToIndex) == 0 {
		return text
	}
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		if _, ok := d.tokenToIndex[string(r)]; ok {
			out = append(out, r)
		}
	}
	return string(out)
}
