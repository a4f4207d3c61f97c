package models

import "time"

// NewsItem - одна статья из ленты. Живёт в пределах одного рендера.
type NewsItem struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Feed      string    `json:"feed"`
	Published time.Time `json:"published,omitempty"`
}

// Text возвращает заголовок и аннотацию через пробел - это то, по чему ищутся ключевые слова.
func (n NewsItem) Text() string {
	return n.Title + " " + n.Summary
}
