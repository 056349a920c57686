package contracts

// Universe is the static instrument list scored by one batch run
// ⭐ SSOT: 유니버스 → 레이팅 엔진 전달
type Universe struct {
	Name        string       `json:"name" yaml:"name"`
	Instruments []Instrument `json:"instruments" yaml:"instruments"`
}

// Contains checks if a code is in the universe
func (u *Universe) Contains(code string) bool {
	_, ok := u.Lookup(code)
	return ok
}

// Lookup returns the instrument with the given code
func (u *Universe) Lookup(code string) (Instrument, bool) {
	for _, inst := range u.Instruments {
		if inst.Code == code {
			return inst, true
		}
	}
	return Instrument{}, false
}

// Count returns the number of instruments
func (u *Universe) Count() int {
	return len(u.Instruments)
}
