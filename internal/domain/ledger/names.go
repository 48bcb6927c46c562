package ledger

import (
	"bytes"
	"sort"
	"unicode"

	"github.com/google/uuid"

	"trainerdesk/internal/domain"
)

// DisplayName returns the member name, suffixed with the last four phone digits
// when another entry of the same trainer carries the same name.
func DisplayName(entry domain.Member, peers []domain.Member) string {
	for _, p := range peers {
		if p.ID != entry.ID && p.TrainerID == entry.TrainerID && p.Name == entry.Name {
			return entry.Name + " (" + lastDigits(entry.Phone, 4) + ")"
		}
	}
	return entry.Name
}

func lastDigits(phone string, n int) string {
	var digits []rune
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return string(digits)
}

type personKey struct {
	trainer uuid.UUID
	name    string
	phone   string
}

func keyOf(m domain.Member) personKey {
	return personKey{trainer: m.TrainerID, name: m.Name, phone: m.Phone}
}

// DeduplicateForDropdown keeps one representative per person: the earliest entry.
// Output order follows the first appearance of each person in entries.
func DeduplicateForDropdown(entries []domain.Member) []domain.Member {
	best := make(map[personKey]int, len(entries))
	var out []domain.Member

	for _, e := range entries {
		k := keyOf(e)
		i, seen := best[k]
		if !seen {
			best[k] = len(out)
			out = append(out, e)
			continue
		}
		if olderThan(e, out[i]) {
			out[i] = e
		}
	}
	return out
}

// SortFIFO orders entries by created_at, then id.
func SortFIFO(entries []domain.Member) {
	sort.SliceStable(entries, func(i, j int) bool {
		return olderThan(entries[i], entries[j])
	})
}

func olderThan(a, b domain.Member) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
