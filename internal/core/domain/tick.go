package domain

// TickStats - итог одного прохода планировщика уведомлений.
// Failed считает поиски, оставшиеся "due" для ретрая на следующем тике.
type TickStats struct {
	Due     int `json:"due"`
	Fired   int `json:"fired"`
	Skipped int `json:"skipped"` // заблокированы параллельным тиком или уже отправлены
	Failed  int `json:"failed"`
}
