package models

// PeriodShare - доли категорий (в процентах) за один период, обычно год.
type PeriodShare struct {
	Period int                  `json:"period"`
	Shares map[Category]float64 `json:"shares"`
}

// Distribution - эталонное распределение, упорядоченное по возрастанию периода.
type Distribution []PeriodShare

// Latest возвращает последний период. ok == false для пустого распределения.
func (d Distribution) Latest() (PeriodShare, bool) {
	if len(d) == 0 {
		return PeriodShare{}, false
	}
	return d[len(d)-1], true
}

const (
	Overrepresented  = "Overrepresented"
	Underrepresented = "Underrepresented"
)

// Disproportion - отношение доли в новостях к эталонной доле по каждой категории.
type Disproportion map[Category]float64

// Bias классифицирует отношение: всё, что больше 1.0, считается перепредставленным.
func Bias(ratio float64) string {
	if ratio > 1.0 {
		return Overrepresented
	}
	return Underrepresented
}
