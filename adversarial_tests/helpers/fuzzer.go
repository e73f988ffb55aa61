package helpers

import (
	"math/rand"
	"strings"
)

// Fuzzer provides utilities for generating adversarial input
type Fuzzer struct {
	rnd *rand.Rand
}

// NewFuzzer creates a new Fuzzer with the given seed
func NewFuzzer(seed int64) *Fuzzer {
	return &Fuzzer{
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// FuzzScreenName generates hostile screen name candidates. None of them is
// a valid screen name.
func (f *Fuzzer) FuzzScreenName() []string {
	return []string{
		// Boundaries
		"",
		"abcdefghijklmnop", // 16 chars, one too long
		strings.Repeat("a", 100),

		// Leading @ is not part of the name
		"@twitterapi",

		// Injection
		"name'; DROP TABLE--",
		"name&oauth_token=x",
		"name%26oauth_token%3Dx",
		"name=value",
		"<script>",

		// Path traversal
		"../../etc/passwd",
		"..\\..\\windows",

		// Unicode
		"café",
		"тест",
		"测试",
		"🚀rocket",
		"name\u202eadmin",

		// Control characters and whitespace
		"name\x00admin",
		"name\nadmin",
		"name\r\n",
		"name admin",
		" name",
	}
}

// FuzzParamValue generates parameter values that must survive percent
// encoding unchanged in meaning.
func (f *Fuzzer) FuzzParamValue() []string {
	values := []string{
		"",
		" ",
		"+",
		"%",
		"%20",
		"%%41",
		"a&b=c",
		"==",
		"oauth_signature=forged",
		"\"quoted\"",
		"comma,separated",
		"new\nline",
		"null\x00byte",
		"\xff\xfe invalid utf-8",
		"Ladies + Gentlemen",
		"An encoded string!",
		"Dogs, Cats & Mice",
		"☃",
		"日本語",
		"emoji 🎉🎉",
		strings.Repeat("x", 5000),
	}
	for i := 0; i < 10; i++ {
		values = append(values, f.GenerateRandomString(1+f.rnd.Intn(64), true))
	}
	return values
}

// GenerateRandomString returns length random bytes. With includeSpecial the
// string may contain any byte, including invalid UTF-8.
func (f *Fuzzer) GenerateRandomString(length int, includeSpecial bool) string {
	const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	b := make([]byte, length)
	for i := range b {
		if includeSpecial {
			b[i] = byte(f.rnd.Intn(256))
		} else {
			b[i] = alphanumeric[f.rnd.Intn(len(alphanumeric))]
		}
	}
	return string(b)
}

// GarbageLine returns a line that is never valid JSON and never contains a
// line feed.
func (f *Fuzzer) GarbageLine() []byte {
	prefixes := []string{"{", "[", "\"", "{\"id\":", "<html>", "HTTP/1.1", "tru", "nul"}
	line := prefixes[f.rnd.Intn(len(prefixes))] + f.GenerateRandomString(f.rnd.Intn(32), false)
	return []byte(line + "}}")
}

// SplitRandomly cuts data into chunks of random sizes between 1 and max
// bytes. The chunks concatenate back to data.
func (f *Fuzzer) SplitRandomly(data []byte, max int) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := 1 + f.rnd.Intn(max)
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

// LineTerminator returns CRLF, at random preceded by whitespace the
// splitter must trim.
func (f *Fuzzer) LineTerminator() string {
	if f.rnd.Intn(2) == 0 {
		return " \t\r\n"
	}
	return "\r\n"
}
