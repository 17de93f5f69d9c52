package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
)

// Seed is the initial registry content.
type Seed struct {
	Clients []domain.ClientRecord `yaml:"clients"`
	Bands   domain.BandTable      `yaml:"bands"`
}

func DefaultSeed() Seed {
	return Seed{
		Clients: []domain.ClientRecord{
			{CPF: "12345678900", Name: "João Silva", DateOfBirth: "15/03/1985", CreditLimit: 5000, CreditScore: 650},
			{CPF: "98765432100", Name: "Maria Santos", DateOfBirth: "22/07/1990", CreditLimit: 8000, CreditScore: 820},
			{CPF: "11122233344", Name: "Pedro Oliveira", DateOfBirth: "10/12/1978", CreditLimit: 3000, CreditScore: 450},
			{CPF: "55566677788", Name: "Ana Costa", DateOfBirth: "05/09/1995", CreditLimit: 15000, CreditScore: 900},
			{CPF: "99988877766", Name: "Carlos Souza", DateOfBirth: "18/01/1982", CreditLimit: 2000, CreditScore: 320},
		},
		Bands: domain.DefaultBands(),
	}
}

func LoadSeedFile(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes YAML seed data. Missing bands fall back to the defaults.
func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("%w: decode seed: %v", domain.ErrValidation, err)
	}
	if len(seed.Bands) == 0 {
		seed.Bands = domain.DefaultBands()
	}
	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

func (s *Seed) Validate() error {
	if err := s.Bands.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(s.Clients))
	for i := range s.Clients {
		s.Clients[i].CPF = domain.NormalizeCPF(s.Clients[i].CPF)
		if err := s.Clients[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Clients[i].CPF]; dup {
			return fmt.Errorf("%w: duplicate client %s in seed", domain.ErrValidation, domain.MaskCPF(s.Clients[i].CPF))
		}
		seen[s.Clients[i].CPF] = struct{}{}
	}
	return nil
}
