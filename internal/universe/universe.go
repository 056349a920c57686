package universe

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/etfrating/internal/contracts"
)

//go:embed default_universe.yaml
var defaultUniverse []byte

// codePattern matches venue-qualified codes such as 510300.SH or 159915.SZ
var codePattern = regexp.MustCompile(`^\d{6}\.(SH|SZ)$`)

// Default returns the built-in Shanghai/Shenzhen ETF list
func Default() (*contracts.Universe, error) {
	return Parse(defaultUniverse)
}

// Load reads a universe file, or the built-in list when path is empty
// ⭐ SSOT: 유니버스 로딩은 여기서만
func Load(path string) (*contracts.Universe, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}

	u, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// Parse decodes and validates a universe YAML document.
// Codes are upper-cased; a repeated code keeps its first entry.
func Parse(data []byte) (*contracts.Universe, error) {
	var u contracts.Universe

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&u); err != nil {
		return nil, fmt.Errorf("decode universe: %w", err)
	}

	seen := make(map[string]bool, len(u.Instruments))
	instruments := make([]contracts.Instrument, 0, len(u.Instruments))
	for i, inst := range u.Instruments {
		inst.Code = strings.ToUpper(strings.TrimSpace(inst.Code))
		inst.Name = strings.TrimSpace(inst.Name)

		if !codePattern.MatchString(inst.Code) {
			return nil, fmt.Errorf("instruments[%d]: invalid code %q", i, inst.Code)
		}
		if seen[inst.Code] {
			continue
		}
		seen[inst.Code] = true

		if inst.Name == "" {
			inst.Name = inst.Code
		}
		instruments = append(instruments, inst)
	}

	if len(instruments) == 0 {
		return nil, fmt.Errorf("universe %q has no instruments", u.Name)
	}

	u.Instruments = instruments
	return &u, nil
}

// Filter returns the sub-universe holding only the given codes, in universe order.
// Unknown codes are returned separately.
func Filter(u *contracts.Universe, codes []string) (*contracts.Universe, []string) {
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[strings.ToUpper(c)] = true
	}

	out := &contracts.Universe{Name: u.Name}
	for _, inst := range u.Instruments {
		if want[inst.Code] {
			out.Instruments = append(out.Instruments, inst)
			delete(want, inst.Code)
		}
	}

	var unknown []string
	for _, c := range codes {
		if want[strings.ToUpper(c)] {
			unknown = append(unknown, c)
		}
	}
	return out, unknown
}

// Venue returns the exchange suffix of a code ("SH" or "SZ")
func Venue(code string) string {
	if i := strings.LastIndexByte(code, '.'); i >= 0 {
		return code[i+1:]
	}
	return ""
}
