package content

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/impostor/internal/dependencies/random"
	"github.com/mcoot/impostor/internal/model"
)

// WordEntry is one secret word with the hint shown to impostors
type WordEntry struct {
	Word string `yaml:"word"`
	Hint string `yaml:"hint"`
}

// WordBank maps category names to their candidate words
type WordBank map[string][]WordEntry

// WordBankProvider picks words from a local word bank
type WordBankProvider struct {
	bank   WordBank
	random random.Random
}

var _ Provider = (*WordBankProvider)(nil)

// NewWordBankProvider creates a provider over an in-memory word bank
func NewWordBankProvider(bank WordBank, rnd random.Random) *WordBankProvider {
	return &WordBankProvider{bank: bank, random: rnd}
}

// ParseWordBank decodes a YAML word bank
func ParseWordBank(data []byte) (WordBank, error) {
	var bank WordBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parsing word bank: %w", err)
	}
	if len(bank) == 0 {
		return nil, fmt.Errorf("word bank is empty")
	}
	return bank, nil
}

// LoadWordBank reads and decodes a YAML word bank file
func LoadWordBank(path string) (WordBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading word bank: %w", err)
	}
	return ParseWordBank(data)
}

// Categories returns the category names present in the bank, sorted by name
func (b WordBank) Categories() []string {
	return slices.Sorted(maps.Keys(b))
}

// Generate picks a random entry for the category. Category names match case-insensitively.
func (p *WordBankProvider) Generate(ctx context.Context, category string) (model.RoundData, error) {
	if err := ctx.Err(); err != nil {
		return model.RoundData{}, err
	}

	name, entries := p.lookup(category)
	if len(entries) == 0 {
		return model.RoundData{}, fmt.Errorf("no words for category %q", category)
	}

	entry := entries[p.random.Intn(len(entries))]
	return model.RoundData{
		Category:     name,
		SecretWord:   entry.Word,
		ImpostorHint: entry.Hint,
	}, nil
}

func (p *WordBankProvider) lookup(category string) (string, []WordEntry) {
	if entries, ok := p.bank[category]; ok {
		return category, entries
	}
	for name, entries := range p.bank {
		if strings.EqualFold(name, category) {
			return name, entries
		}
	}
	return category, nil
}
