package analytics

import "princals-dashboard/models"

// Profile is the closed set of cluster interpretations.
type Profile int

const (
	HighAchiever   Profile = 0
	Balanced       Profile = 1
	NeedsAttention Profile = 2
)

// ProfileOf maps a cluster id to its profile. Unknown ids are Balanced.
func ProfileOf(cluster int) Profile {
	switch Profile(cluster) {
	case HighAchiever, NeedsAttention:
		return Profile(cluster)
	default:
		return Balanced
	}
}

// Interpretation returns the fixed description of p.
func (p Profile) Interpretation() models.Interpretation {
	switch p {
	case HighAchiever:
		return models.Interpretation{
			Emoji:           "🌟",
			Title:           "Mahasiswa Berprestasi Tinggi",
			Description:     "Kelompok dengan performa akademik excellent",
			Characteristics: []string{"IPK tinggi (>3.5)", "Presensi >95%", "Kepuasan tinggi"},
			Recommendation:  "Pertahankan motivasi dan berikan tantangan pengembangan.",
		}
	case NeedsAttention:
		return models.Interpretation{
			Emoji:           "⚠️",
			Title:           "Mahasiswa Perlu Perhatian",
			Description:     "Kelompok yang memerlukan intervensi akademik",
			Characteristics: []string{"IPK rendah (<3.0)", "Presensi <85%", "Kepuasan rendah"},
			Recommendation:  "Intervensi intensif dan bimbingan akademik diperlukan.",
		}
	default:
		return models.Interpretation{
			Emoji:           "⚖️",
			Title:           "Mahasiswa Performa Seimbang",
			Description:     "Kelompok dengan performa akademik moderat",
			Characteristics: []string{"IPK sedang (3.0-3.5)", "Presensi 85-95%", "Kepuasan sedang"},
			Recommendation:  "Berikan pendampingan untuk meningkatkan performa.",
		}
	}
}

// Interpret returns the interpretation shown for a cluster id.
func Interpret(cluster int) models.Interpretation {
	return ProfileOf(cluster).Interpretation()
}
