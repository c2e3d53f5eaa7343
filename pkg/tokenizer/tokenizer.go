package tokenizer

import (
	"log"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when a profile is not recognized by tiktoken.
// cl100k_base is the GPT-4 encoding and a reasonable approximation for
// other modern models.
const DefaultEncoding = "cl100k_base"

// fallbackTokensPerWord is the tokens-per-word ratio used for approximate
// truncation and chunking when no real encoder is available.
const fallbackTokensPerWord = 1.3

// Counter counts and truncates tokens for a fixed tokenizer profile.
// The encoder is resolved lazily; when none can be resolved, every
// operation degrades to a word/char heuristic instead of failing.
type Counter struct {
	profile string
	once    sync.Once
	enc     *tiktoken.Tiktoken
}

// New creates a Counter for the given profile (a model name such as
// "gpt-4"). An empty profile uses the default encoding.
func New(profile string) *Counter {
	return &Counter{profile: profile}
}

// Profile returns the profile the Counter was created with.
func (c *Counter) Profile() string {
	return c.profile
}

func (c *Counter) encoder() *tiktoken.Tiktoken {
	c.once.Do(func() {
		var enc *tiktoken.Tiktoken
		var err error
		if c.profile != "" {
			enc, err = tiktoken.EncodingForModel(c.profile)
		}
		if enc == nil {
			enc, err = tiktoken.GetEncoding(DefaultEncoding)
		}
		if err != nil {
			log.Printf("tokenizer: no encoding for %q, using heuristic: %v", c.profile, err)
			return
		}
		c.enc = enc
	})
	return c.enc
}

// encode runs the real tokenizer, reporting ok=false when no encoder is
// available or encoding fails for any reason.
func (c *Counter) encode(text string) (tokens []int, ok bool) {
	enc := c.encoder()
	if enc == nil {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tokenizer: encode failed, using heuristic: %v", r)
			tokens, ok = nil, false
		}
	}()
	// Allow all special tokens so inputs containing sequences like
	// "<|endoftext|>" are counted rather than rejected.
	return enc.Encode(text, []string{"all"}, nil), true
}

// Count returns the number of tokens in text. Empty text is 0 without
// touching the encoder.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if tokens, ok := c.encode(text); ok {
		return len(tokens)
	}
	return heuristicCount(text)
}

// Truncate returns text cut to at most maxTokens tokens. Text already
// within the limit is returned unchanged.
func (c *Counter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if tokens, ok := c.encode(text); ok {
		if len(tokens) <= maxTokens {
			return text
		}
		return c.enc.Decode(tokens[:maxTokens])
	}
	return heuristicTruncate(text, maxTokens)
}

// Chunk splits text into chunks of at most chunkSize tokens, with the
// given token overlap between consecutive chunks.
func (c *Counter) Chunk(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		return []string{text}
	}
	if tokens, ok := c.encode(text); ok {
		step := chunkSize - overlap
		if step < 1 {
			step = 1
		}
		var chunks []string
		for i := 0; i < len(tokens); i += step {
			end := i + chunkSize
			if end > len(tokens) {
				end = len(tokens)
			}
			chunks = append(chunks, c.enc.Decode(tokens[i:end]))
			if end == len(tokens) {
				break
			}
		}
		return chunks
	}
	return heuristicChunk(text, chunkSize, overlap)
}

// heuristicCount approximates a token count as words + chars/4.
func heuristicCount(text string) int {
	return len(strings.Fields(text)) + len(text)/4
}

// heuristicTruncate keeps a word prefix sized at fallbackTokensPerWord,
// then drops trailing words until the heuristic count fits, so the
// truncated result never counts above maxTokens.
func heuristicTruncate(text string, maxTokens int) string {
	if heuristicCount(text) <= maxTokens {
		return text
	}
	words := strings.Fields(text)
	keep := int(float64(maxTokens) / fallbackTokensPerWord)
	if keep > len(words) {
		keep = len(words)
	}
	out := strings.Join(words[:keep], " ")
	for keep > 0 && heuristicCount(out) > maxTokens {
		keep--
		out = strings.Join(words[:keep], " ")
	}
	return out
}

func heuristicChunk(text string, chunkSize, overlap int) []string {
	words := strings.Fields(text)
	chunkWords := int(float64(chunkSize) / fallbackTokensPerWord)
	if chunkWords < 1 {
		chunkWords = 1
	}
	overlapWords := int(float64(overlap) / fallbackTokensPerWord)
	step := chunkWords - overlapWords
	if step < 1 {
		step = 1
	}
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
